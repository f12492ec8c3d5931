package cli

import (
	"github.com/spf13/cobra"
)

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "edit <document> <op>...",
		Short: "Apply edits to a split tree and show the result",
		Long: `Apply a sequence of edits to a freshly built tree and print it.

Operations:
  share:KEY=0.8      move KEY to a share of its parent; siblings absorb the rest
  amount:KEY=$12     set KEY's amount and push it down to its children
  commit:KEY=$12     type an amount into KEY's field; ancestors grow or shrink
  slide:KEY=800      move KEY's slider (0-1000)
  allot:NAME         apply an allotment preset
  reset              restore the shares the tree was built with

Examples:
  allot edit humble.yaml share:charity=0.9
  allot edit humble.yaml commit:developers='$10' slide:red-cross=250`,
		Args:          cobra.MinimumNArgs(2),
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
			formatter.VerboseLog("Applied %d edit(s)", len(ops))

			if err := tree.CheckConservation(); err != nil {
				return formatter.Fail(withCode(ErrCodeEdit, err))
			}
			return renderTree(formatter, doc, tree)
		},
	}

	tOpts.addFlags(cmd)
	return cmd
}
