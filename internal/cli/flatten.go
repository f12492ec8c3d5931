package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/money"
)

// FlatLeaf is one leaf's cut of the total.
type FlatLeaf struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Amount  int64   `json:"amount"`
	Percent float64 `json:"percent"`
}

// FlattenResult lists the leaves in tree order.
type FlattenResult struct {
	Total  int64      `json:"total"`
	Leaves []FlatLeaf `json:"leaves"`
}

// NewFlattenCommand creates the flatten command.
func NewFlattenCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "flatten <document> [op...]",
		Short: "List each leaf's percentage of the total",
		Long: `Build a tree, apply any edits, and list every leaf with its amount and
its share of the root total as a percentage: the product of the shares on
the path from the root.`,
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

			result := flattenTree(tree)
			return formatter.Render(result, func(w io.Writer) error {
				for _, leaf := range result.Leaves {
					label := leaf.Name
					if label == "" {
						label = leaf.Key
					}
					if _, err := fmt.Fprintf(w, "%-28s %9.4f%% %12s\n", label, leaf.Percent, money.Format(leaf.Amount)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	tOpts.addFlags(cmd)
	return cmd
}

func flattenTree(tree *alloc.Tree) FlattenResult {
	percents := alloc.FlattenShares(tree.Root())
	result := FlattenResult{Total: tree.Total()}
	for _, n := range tree.Leaves() {
		result.Leaves = append(result.Leaves, FlatLeaf{
			Key:     n.Key(),
			Name:    n.Name(),
			Amount:  n.Amount(),
			Percent: percents[n.Key()],
		})
	}
	return result
}
