package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/money"
	"github.com/roach88/allot/internal/present"
	"github.com/roach88/allot/internal/splitspec"
)

// TreeView is the JSON form of a tree as show and edit print it.
type TreeView struct {
	Name      string        `json:"name"`
	Total     int64         `json:"total"`
	Display   string        `json:"display"`
	Allotment string        `json:"allotment,omitempty"`
	Rows      []present.Row `json:"rows"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "show <document>",
		Short: "Show the split tree with amounts and percentages",
		Long: `Build a split document's tree and print every node with its dollar
amount and its percentage of the parent.

Examples:
  allot show humble.yaml
  allot show humble.yaml --total '$40' --allotment all-to-charity
  allot show humble.yaml --snapshot saved.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			doc, tree, err := loadTree(rootOpts, tOpts, args[0])
			if err != nil {
				return formatter.Fail(err)
			}
			return renderTree(formatter, doc, tree)
		},
	}

	tOpts.addFlags(cmd)
	return cmd
}

func renderTree(formatter *OutputFormatter, doc *splitspec.Document, tree *alloc.Tree) error {
	view := TreeView{
		Name:      doc.Name,
		Total:     tree.Total(),
		Display:   money.Format(tree.Total()),
		Allotment: tree.Allotment(),
		Rows:      present.Rows(tree),
	}
	return formatter.Render(view, func(w io.Writer) error {
		header := view.Name
		if view.Allotment != "" {
			header += " [" + view.Allotment + "]"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		return present.Render(w, tree)
	})
}
