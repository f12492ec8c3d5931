package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WriteSubmission inserts a submission into the log.
// Returns the row's ID and whether a new row was inserted.
//
// Uses ON CONFLICT(digest) DO NOTHING for idempotency: if an identical
// allocation was already submitted, the existing ID is returned with
// inserted=false. A zero Seq is replaced with the next value from NextSeq
// inside the same transaction.
func (s *Store) WriteSubmission(ctx context.Context, sub Submission) (id string, inserted bool, err error) {
	allocJSON, err := marshalAllocations(sub.Allocations)
	if err != nil {
		return "", false, fmt.Errorf("write submission: %w", err)
	}
	pctJSON, err := marshalPercentages(sub.Percentages)
	if err != nil {
		return "", false, fmt.Errorf("write submission: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("write submission: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq := sub.Seq
	if seq == 0 {
		if seq, err = nextSeq(ctx, tx); err != nil {
			return "", false, fmt.Errorf("write submission: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO submissions
		(id, digest, config_name, allotment, total_pennies, allocations, percentages, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`,
		sub.ID,
		sub.Digest,
		sub.ConfigName,
		sub.Allotment,
		sub.TotalPennies,
		allocJSON,
		pctJSON,
		seq,
	)
	if err != nil {
		return "", false, fmt.Errorf("write submission: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("write submission: rows affected: %w", err)
	}

	if rowsAffected > 0 {
		id, inserted = sub.ID, true
	} else {
		// Conflict - the same digest is already logged, fetch its ID
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM submissions WHERE digest = ?
		`, sub.Digest).Scan(&id)
		if err != nil {
			return "", false, fmt.Errorf("write submission: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("write submission: commit: %w", err)
	}
	return id, inserted, nil
}

// NextSeq returns one more than the highest seq in the log, starting at 1.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	return nextSeq(ctx, s.db)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nextSeq(ctx context.Context, q queryRower) (int64, error) {
	var seq int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM submissions`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return seq, nil
}
