package store

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/allot/internal/alloc"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSubmission creates a submission with minimal required fields.
func createTestSubmission(id, digest string, seq int64) Submission {
	return Submission{
		ID:           id,
		Digest:       digest,
		ConfigName:   "test-config",
		TotalPennies: 100,
		Allocations:  map[string]int64{"a": 60, "b": 40},
		Percentages:  map[string]float64{"a": 60, "b": 40},
		Seq:          seq,
	}
}

func createTestTree(t *testing.T, total int64) *alloc.Tree {
	t.Helper()
	tree, err := alloc.Build(total, []alloc.SplitSpec{
		{Key: "charity", Children: []alloc.SplitSpec{{Key: "animals"}, {Key: "people"}}},
		{Key: "developers"},
	}, alloc.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return tree
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan index: %v", err)
		}
		names = append(names, name)
	}
	return names
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
