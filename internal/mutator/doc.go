// Package mutator applies idempotent edits to configuration artifacts.
//
// Two kinds of artifact are supported:
//
//   - Line-oriented text files (shell profiles) carrying marked blocks. A
//     [Block] owns every line between its begin and end markers, and
//     [ApplyBlock] replaces that region or appends it when absent.
//   - Hierarchical YAML documents held as yaml.v3 node trees. [Insert] patches a
//     value at a key path, creating missing mappings, and [Flatten] collapses
//     nested mappings into dotted keys.
package mutator
