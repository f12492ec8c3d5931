package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/alloc"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}
	var output string

	cmd := &cobra.Command{
		Use:   "export <document> [op...]",
		Short: "Export the tree's amounts and shares as a JSON snapshot",
		Long: `Build a tree, apply any edits, and write its snapshot: nested
{amount, share, children} objects in tree order. The snapshot can be fed
back with --snapshot to show, edit, flatten or submit.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			ops, err := ParseEditOps(args[1:])
			if err != nil {
				return formatter.Fail(err)
			}
			doc, tree, err := loadTree(rootOpts, tOpts, args[0])
			if err != nil {
				return formatter.Fail(err)
			}
			if err := applyEdits(doc, tree, ops); err != nil {
				return formatter.Fail(err)
			}

			snap := alloc.Export(tree.Root())
			if output != "" {
				if err := writeSnapshot(output, snap); err != nil {
					return formatter.Fail(withCode(ErrCodeWrite, err))
				}
				formatter.VerboseLog("Wrote snapshot to %s", output)
			}

			return formatter.Render(snap, func(w io.Writer) error {
				if output != "" {
					_, err := fmt.Fprintf(w, "✓ Snapshot written to %s\n", output)
					return err
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			})
		},
	}

	tOpts.addFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to this file")
	return cmd
}

func writeSnapshot(path string, snap alloc.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
