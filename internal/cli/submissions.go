package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/money"
	"github.com/roach88/allot/internal/store"
)

// NewSubmissionsCommand creates the submissions command.
func NewSubmissionsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath     string
		configName string
		id         string
	)

	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List the submission log",
		Long: `List recorded submissions in log order, optionally for one split
document, or show a single submission by ID.

Examples:
  allot submissions --db allot.db
  allot submissions --config humble-bundle --format json
  allot submissions --id 0190c3e1-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			path := resolveDBPath(rootOpts, dbPath)
			if _, err := os.Stat(path); isNotFound(err) {
				return formatter.Fail(withCode(ErrCodeNotFound, fmt.Errorf("database not found: %s", path)))
			}

			st, err := store.Open(path)
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}
			defer st.Close()

			ctx := context.Background()
			var subs []store.Submission
			switch {
			case id != "":
				sub, err := st.ReadSubmission(ctx, id)
				if errors.Is(err, sql.ErrNoRows) {
					return formatter.Fail(withCode(ErrCodeNotStored, fmt.Errorf("no submission with id %s", id)))
				}
				if err != nil {
					return formatter.Fail(withCode(ErrCodeStore, err))
				}
				subs = []store.Submission{sub}
			case configName != "":
				subs, err = st.ListSubmissionsByConfig(ctx, configName)
			default:
				subs, err = st.ListSubmissions(ctx)
			}
			if err != nil {
				return formatter.Fail(withCode(ErrCodeStore, err))
			}

			views := make([]SubmissionView, len(subs))
			for i, sub := range subs {
				views[i] = viewSubmission(sub)
			}
			return formatter.Render(views, func(w io.Writer) error {
				return writeSubmissionsText(w, views)
			})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the submission log (default $ALLOT_DB_PATH)")
	cmd.Flags().StringVar(&configName, "config", "", "only submissions for this split document")
	cmd.Flags().StringVar(&id, "id", "", "show one submission")
	return cmd
}

func writeSubmissionsText(w io.Writer, views []SubmissionView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No submissions.")
		return err
	}
	for _, v := range views {
		header := v.Config
		if v.Allotment != "" {
			header += " [" + v.Allotment + "]"
		}
		if _, err := fmt.Fprintf(w, "%4d  %s  %s  %s\n", v.Seq, v.ID, header, money.Format(v.Total)); err != nil {
			return err
		}
		for _, k := range slices.Sorted(maps.Keys(v.Allocations)) {
			if _, err := fmt.Fprintf(w, "      %-22s %12s %9.4f%%\n", k, money.Format(v.Allocations[k]), v.Percentages[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
