package store

import (
	"context"
	"database/sql"
	"fmt"
)

const submissionColumns = `id, digest, config_name, allotment, total_pennies, allocations, percentages, seq`

// ReadSubmission retrieves a single submission by ID.
// Returns an error wrapping sql.ErrNoRows if not found.
func (s *Store) ReadSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE id = ?
	`, id)

	sub, err := scanSubmission(row)
	if err != nil {
		return Submission{}, fmt.Errorf("read submission %s: %w", id, err)
	}
	return sub, nil
}

// ListSubmissions returns every submission in log order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the log is empty.
func (s *Store) ListSubmissions(ctx context.Context) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	return collectSubmissions(rows)
}

// ListSubmissionsByConfig returns the submissions for one split document,
// in log order.
func (s *Store) ListSubmissionsByConfig(ctx context.Context, configName string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE config_name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, configName)
	if err != nil {
		return nil, fmt.Errorf("query submissions for %q: %w", configName, err)
	}
	return collectSubmissions(rows)
}

func collectSubmissions(rows *sql.Rows) ([]Submission, error) {
	defer rows.Close()

	subs := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (Submission, error) {
	var (
		sub       Submission
		allocJSON string
		pctJSON   string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.Digest,
		&sub.ConfigName,
		&sub.Allotment,
		&sub.TotalPennies,
		&allocJSON,
		&pctJSON,
		&sub.Seq,
	); err != nil {
		return Submission{}, err
	}

	var err error
	if sub.Allocations, err = unmarshalAllocations(allocJSON); err != nil {
		return Submission{}, err
	}
	if sub.Percentages, err = unmarshalPercentages(pctJSON); err != nil {
		return Submission{}, err
	}
	return sub, nil
}
