package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/money"
	"github.com/roach88/allot/internal/present"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Name       string   `json:"name"`
	Nodes      int      `json:"nodes"`
	Leaves     int      `json:"leaves"`
	Total      int64    `json:"total"`
	Allotment  string   `json:"allotment,omitempty"`
	Allotments []string `json:"allotments,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a split document",
		Long: `Validate a split document without editing it.

Parses the document (YAML, JSON or CUE), checks it against the schema,
builds the tree and confirms the total meets the minimum purchase.
Every allotment preset is applied to a scratch tree so a preset naming
an unknown key is caught here.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, tOpts, args[0], cmd)
		},
	}

	tOpts.addFlags(cmd)
	return cmd
}

func runValidate(opts *RootOptions, tOpts *TreeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	doc, tree, err := loadTree(opts, tOpts, path)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("Loaded %s: %d node(s)", doc.Name, tree.Len())

	for _, name := range doc.AllotmentNames() {
		formatter.VerboseLog("Checking allotment: %s", name)
		_, scratch, err := loadTree(opts, &TreeOptions{Total: tOpts.Total}, path)
		if err != nil {
			return formatter.Fail(err)
		}
		if err := applyAllotment(doc, scratch, name); err != nil {
			return formatter.Fail(err)
		}
	}

	if err := present.Validate(tree); err != nil {
		return formatter.Fail(withCode(ErrCodeMinimum, err))
	}
	if err := tree.CheckConservation(); err != nil {
		return formatter.Fail(withCode(ErrCodeBuild, err))
	}

	result := ValidationResult{
		Valid:      true,
		Name:       doc.Name,
		Nodes:      tree.Len(),
		Leaves:     len(tree.Leaves()),
		Total:      tree.Total(),
		Allotment:  tree.Allotment(),
		Allotments: doc.AllotmentNames(),
	}
	return formatter.Render(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ %s valid (%d nodes, %d leaves, total %s)\n",
			result.Name, result.Nodes, result.Leaves, money.Format(result.Total))
		return err
	})
}
