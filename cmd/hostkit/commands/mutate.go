package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imamik/hostkit/cmd/hostkit/handlers"
)

// Block returns the parent command for marked blocks in text files.
func Block() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage marked blocks in text files",
	}

	var id string
	apply := &cobra.Command{
		Use:   "apply FILE [LINE...]",
		Short: "Insert or replace a marked block",
		Long: `Insert LINEs into FILE between the marker lines of block --id, replacing
whatever the block held before. A missing file is created.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.BlockApply(env, args[0], id, args[1:])
			})
		},
	}
	apply.Flags().StringVar(&id, "id", "", "Block identifier")
	_ = apply.MarkFlagRequired("id")
	cmd.AddCommand(apply)

	return cmd
}

// Doc returns the parent command for YAML document edits. Key paths are
// dotted, e.g. server.tls.
func Doc() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Read and edit YAML documents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get FILE [KEY.PATH]",
		Short: "Print the subtree at a key path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var keyPath []string
			if len(args) == 2 {
				var err error
				if keyPath, err = splitKeyPath(args[1]); err != nil {
					return err
				}
			}
			return run(cmd, func(env *handlers.Env) error {
				return handlers.DocGet(env, args[0], keyPath)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "insert FILE KEY.PATH VALUE",
		Short: "Set a string value, creating missing mappings",
		Long: `Set the last segment of KEY.PATH to VALUE, always as a string, creating
missing mappings on the way. Sibling keys are kept.

Examples:
  hostkit doc insert values.yaml server.tls.enabled true`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := splitKeyPath(args[1])
			if err != nil {
				return err
			}
			parents, leaf := keys[:len(keys)-1], keys[len(keys)-1]
			return run(cmd, func(env *handlers.Env) error {
				return handlers.DocInsert(env, args[0], parents, leaf, args[2])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flatten FILE",
		Short: "Print the document with nested keys joined by dots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(env *handlers.Env) error {
				return handlers.DocFlatten(env, args[0])
			})
		},
	})

	return cmd
}

// splitKeyPath splits a dotted key path into its non-empty segments.
func splitKeyPath(path string) ([]string, error) {
	keys := strings.Split(path, ".")
	for _, key := range keys {
		if key == "" {
			return nil, fmt.Errorf("invalid key path %q: empty segment", path)
		}
	}
	return keys, nil
}
