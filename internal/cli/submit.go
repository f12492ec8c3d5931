package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/money"
	"github.com/roach88/allot/internal/present"
	"github.com/roach88/allot/internal/store"
)

// SubmissionView is the JSON form of a stored submission.
type SubmissionView struct {
	ID          string             `json:"id"`
	Digest      string             `json:"digest"`
	Config      string             `json:"config"`
	Allotment   string             `json:"allotment,omitempty"`
	Total       int64              `json:"total"`
	Allocations map[string]int64   `json:"allocations"`
	Percentages map[string]float64 `json:"percentages"`
	Seq         int64              `json:"seq"`
}

// SubmitResult reports where a submission landed.
type SubmitResult struct {
	Submission SubmissionView `json:"submission"`
	Inserted   bool           `json:"inserted"`
}

func viewSubmission(sub store.Submission) SubmissionView {
	return SubmissionView{
		ID:          sub.ID,
		Digest:      sub.Digest,
		Config:      sub.ConfigName,
		Allotment:   sub.Allotment,
		Total:       sub.TotalPennies,
		Allocations: sub.Allocations,
		Percentages: sub.Percentages,
		Seq:         sub.Seq,
	}
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	tOpts := &TreeOptions{}
	var dbPath string

	cmd := &cobra.Command{
		Use:   "submit <document> [op...]",
		Short: "Record the flattened allocation in the submission log",
		Long: `Build a tree, apply any edits, and append its leaf amounts and
percentages to the SQLite submission log.

Submitting the same allocation twice is a no-op: the log is keyed by a
digest of the document name, allotment, total and leaf amounts, and the
existing submission is reported.

The database path defaults to ALLOT_DB_PATH (./allot.db).`,
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
			if err := present.Validate(tree); err != nil {
				return formatter.Fail(withCode(ErrCodeMinimum, err))
			}

			sub, err := store.NewSubmission(tree, doc.Name, store.UUIDv7Generator{})
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}

			st, err := store.Open(resolveDBPath(rootOpts, dbPath))
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}
			defer st.Close()

			ctx := context.Background()
			id, inserted, err := st.WriteSubmission(ctx, sub)
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}
			stored, err := st.ReadSubmission(ctx, id)
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}

			rootOpts.Logger.Info("submission recorded", "id", id, "inserted", inserted, "total", stored.TotalPennies)

			result := SubmitResult{Submission: viewSubmission(stored), Inserted: inserted}
			return formatter.Render(result, func(w io.Writer) error {
				verb := "Submitted"
				if !inserted {
					verb = "Already submitted"
				}
				_, err := fmt.Fprintf(w, "✓ %s %s (%s, seq %d)\n", verb, stored.ID, money.Format(stored.TotalPennies), stored.Seq)
				return err
			})
		},
	}

	tOpts.addFlags(cmd)
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the submission log (default $ALLOT_DB_PATH)")
	return cmd
}

func resolveDBPath(opts *RootOptions, flag string) string {
	if flag != "" {
		return flag
	}
	opts.ensure()
	return opts.Config.DBPath
}
