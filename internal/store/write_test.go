package store

import (
	"context"
	"testing"
)

func TestWriteSubmission_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sub := createTestSubmission("sub-1", "digest-1", 7)
	id, inserted, err := s.WriteSubmission(ctx, sub)
	if err != nil {
		t.Fatalf("WriteSubmission() failed: %v", err)
	}
	if id != "sub-1" || !inserted {
		t.Errorf("WriteSubmission() = (%q, %v), want (\"sub-1\", true)", id, inserted)
	}

	var (
		allocJSON string
		pctJSON   string
		seq       int64
	)
	err = s.db.QueryRow("SELECT allocations, percentages, seq FROM submissions WHERE id = ?", id).
		Scan(&allocJSON, &pctJSON, &seq)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if allocJSON != `{"a":60,"b":40}` {
		t.Errorf("allocations = %s, want canonical JSON", allocJSON)
	}
	if pctJSON != `{"a":60,"b":40}` {
		t.Errorf("percentages = %s", pctJSON)
	}
	if seq != 7 {
		t.Errorf("seq = %d, want 7", seq)
	}
}

func TestWriteSubmission_IdempotentOnDigest(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestSubmission("sub-1", "same", 1)
	if _, _, err := s.WriteSubmission(ctx, first); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	// Same content under a fresh ID.
	again := createTestSubmission("sub-2", "same", 2)
	id, inserted, err := s.WriteSubmission(ctx, again)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if inserted {
		t.Error("second write reported inserted=true")
	}
	if id != "sub-1" {
		t.Errorf("second write returned id %q, want existing \"sub-1\"", id)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM submissions").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("row count = %d, want 1", count)
	}
}

func TestWriteSubmission_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, digest := range []string{"d1", "d2", "d3"} {
		sub := createTestSubmission("sub-"+digest, digest, 0)
		if _, _, err := s.WriteSubmission(ctx, sub); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	got, err := s.ReadSubmission(ctx, "sub-d3")
	if err != nil {
		t.Fatalf("ReadSubmission() failed: %v", err)
	}
	if got.Seq != 3 {
		t.Errorf("seq = %d, want 3", got.Seq)
	}

	next, err := s.NextSeq(ctx)
	if err != nil {
		t.Fatalf("NextSeq() failed: %v", err)
	}
	if next != 4 {
		t.Errorf("NextSeq() = %d, want 4", next)
	}
}

func TestNextSeq_EmptyLog(t *testing.T) {
	s := createTestStore(t)

	next, err := s.NextSeq(context.Background())
	if err != nil {
		t.Fatalf("NextSeq() failed: %v", err)
	}
	if next != 1 {
		t.Errorf("NextSeq() = %d, want 1", next)
	}
}

func TestWriteSubmission_RejectsNegativeTotal(t *testing.T) {
	s := createTestStore(t)

	sub := createTestSubmission("sub-1", "d", 1)
	sub.TotalPennies = -5
	if _, _, err := s.WriteSubmission(context.Background(), sub); err == nil {
		t.Error("expected error for negative total")
	}
}
