package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/imamik/hostkit/internal/mutator"
)

// BlockApply merges a marked block into path. A dry run prints the merged
// file instead of writing it.
func BlockApply(env *Env, path, id string, lines []string) error {
	block := mutator.Block{ID: id, Prefix: env.Config.MarkerPrefix, Content: lines}
	if env.Context.ReallyExecute {
		return mutator.ApplyBlock(path, block)
	}

	// #nosec G304 - path is chosen by the operator
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &mutator.IOError{Op: "read", Path: path, Err: err}
	}
	env.printf("[dry-run] would write %s:\n%s", path, mutator.MergeBlock(string(data), block))
	return nil
}

// DocGet prints the subtree of the YAML document at keyPath.
func DocGet(env *Env, path string, keyPath []string) error {
	doc, err := mutator.LoadDocument(path)
	if err != nil {
		return err
	}
	node, err := mutator.Lookup(doc, keyPath)
	if err != nil {
		return err
	}
	out, err := mutator.EncodeDocument(node)
	if err != nil {
		return err
	}
	env.printf("%s", out)
	return nil
}

// DocInsert sets key to value below keyPath in the YAML document at path,
// creating the file when it does not exist. A dry run prints the result
// instead of saving it.
func DocInsert(env *Env, path string, keyPath []string, key, value string) error {
	doc, err := mutator.LoadDocument(path)
	if errors.Is(err, fs.ErrNotExist) {
		doc, err = mutator.ParseDocument(nil)
	}
	if err != nil {
		return err
	}

	if err := mutator.Insert(doc, keyPath, key, value); err != nil {
		return fmt.Errorf("failed to insert %s into %s: %w", key, path, err)
	}

	if env.Context.ReallyExecute {
		return mutator.SaveDocument(path, doc)
	}
	out, err := mutator.EncodeDocument(doc)
	if err != nil {
		return err
	}
	env.printf("[dry-run] would write %s:\n%s", path, out)
	return nil
}

// DocFlatten prints the YAML document at path with nested mappings
// collapsed into dotted keys.
func DocFlatten(env *Env, path string) error {
	doc, err := mutator.LoadDocument(path)
	if err != nil {
		return err
	}
	out, err := mutator.EncodeDocument(mutator.Flatten(doc))
	if err != nil {
		return err
	}
	env.printf("%s", out)
	return nil
}
