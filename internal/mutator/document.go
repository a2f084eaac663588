package mutator

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Insert walks keyPath from the root of doc and sets leafKey to leafValue in
// the mapping found there. Missing path segments are created as nested
// single-entry mappings; an existing leafKey is overwritten and sibling keys
// are left alone. Meeting a node that is not a mapping on the way fails with
// ErrStructureMismatch.
//
// Aliases are followed, so inserting below an aliased mapping mutates the
// anchored node.
func Insert(doc *yaml.Node, keyPath []string, leafKey, leafValue string) error {
	here := root(doc)
	if here == nil {
		return fmt.Errorf("%w: document is nil", ErrStructureMismatch)
	}

	for i, key := range keyPath {
		if here.Kind != yaml.MappingNode {
			return fmt.Errorf("%w: cannot look up %q below %q", ErrStructureMismatch, key, dotted(keyPath[:i]))
		}
		next := mappingValue(here, key)
		if next == nil {
			setMappingValue(here, key, chain(keyPath[i+1:], leafKey, leafValue))
			return nil
		}
		here = resolve(next)
	}

	if here.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: cannot insert %q at %q", ErrStructureMismatch, leafKey, dotted(keyPath))
	}
	setMappingValue(here, leafKey, stringNode(leafValue))
	return nil
}

// Lookup returns the node found by following keyPath from the root of doc.
func Lookup(doc *yaml.Node, keyPath []string) (*yaml.Node, error) {
	here := root(doc)
	if here == nil {
		return nil, fmt.Errorf("%w: document is nil", ErrStructureMismatch)
	}

	for i, key := range keyPath {
		if here.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: cannot look up %q below %q", ErrStructureMismatch, key, dotted(keyPath[:i]))
		}
		next := mappingValue(here, key)
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, dotted(keyPath[:i+1]))
		}
		here = resolve(next)
	}
	return here, nil
}

// Flatten collapses nested mappings into a single mapping keyed by dotted
// paths. Non-mapping values are copied as they are, and a root that is not a
// mapping is returned unchanged.
//
// Entries are visited depth-first in document order. When two paths produce
// the same dotted key (for example "a.b" and a nested a: {b: ...}), the value
// visited last wins and keeps the position of the first occurrence.
func Flatten(doc *yaml.Node) *yaml.Node {
	n := resolve(doc)
	if n == nil || n.Kind != yaml.MappingNode {
		return doc
	}

	result := mappingNode()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], resolve(n.Content[i+1])
		if value.Kind == yaml.MappingNode {
			inner := Flatten(value)
			for j := 0; j+1 < len(inner.Content); j += 2 {
				setMappingValue(result, key.Value+"."+inner.Content[j].Value, inner.Content[j+1])
			}
			continue
		}
		setMappingValue(result, key.Value, copyNode(value))
	}
	return result
}

// ParseDocument decodes YAML into a node tree. Empty input yields an empty
// mapping document.
func ParseDocument(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mappingNode()}}, nil
	}
	return &doc, nil
}

// EncodeDocument renders a node tree as YAML with two-space indentation.
func EncodeDocument(doc *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadDocument reads and parses the YAML document at path.
func LoadDocument(path string) (*yaml.Node, error) {
	// #nosec G304 - path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// SaveDocument writes doc to path as YAML.
func SaveDocument(path string, doc *yaml.Node) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, defaultFileMode); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// root resolves doc to its top-level content node. A zero node or an empty
// document becomes an empty mapping so that inserts into fresh documents work.
func root(doc *yaml.Node) *yaml.Node {
	if doc == nil {
		return nil
	}
	switch {
	case doc.Kind == 0:
		*doc = *mappingNode()
		return doc
	case doc.Kind == yaml.DocumentNode && len(doc.Content) == 0:
		doc.Content = append(doc.Content, mappingNode())
	}
	return resolve(doc)
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, stringNode(key), value)
}

// chain builds {keys[0]: {keys[1]: ... {leafKey: leafValue}}}.
func chain(keys []string, leafKey, leafValue string) *yaml.Node {
	node := mappingNode()
	setMappingValue(node, leafKey, stringNode(leafValue))
	for i := len(keys) - 1; i >= 0; i-- {
		parent := mappingNode()
		setMappingValue(parent, keys[i], node)
		node = parent
	}
	return node
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func copyNode(n *yaml.Node) *yaml.Node {
	c := *n
	c.Anchor = ""
	if len(n.Content) > 0 {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = copyNode(resolve(child))
		}
	}
	return &c
}

func dotted(keys []string) string {
	if len(keys) == 0 {
		return "<root>"
	}
	return strings.Join(keys, ".")
}
