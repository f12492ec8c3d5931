package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/canonical"
)

// Submission is one flattened allocation as it was submitted.
type Submission struct {
	ID           string
	Digest       string
	ConfigName   string
	Allotment    string
	TotalPennies int64

	// Allocations maps leaf keys to pennies. The values sum to TotalPennies.
	Allocations map[string]int64

	// Percentages maps leaf keys to their share of the total, 0-100.
	Percentages map[string]float64

	// Seq orders submissions. Zero means "assign on write".
	Seq int64
}

// IDGenerator produces submission IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 submission IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewSubmission flattens tree into a submission record. The digest covers the
// config name, allotment, total and leaf amounts; percentages are derived
// from the same shares and are left out so the digest stays float-free.
func NewSubmission(tree *alloc.Tree, configName string, ids IDGenerator) (Submission, error) {
	leaves := tree.Leaves()
	allocations := make(map[string]int64, len(leaves))
	for _, n := range leaves {
		allocations[n.Key()] = n.Amount()
	}

	digest, err := canonical.Digest(canonical.DomainSubmission, map[string]any{
		"config_name":   configName,
		"allotment":     tree.Allotment(),
		"total_pennies": tree.Total(),
		"allocations":   allocations,
	})
	if err != nil {
		return Submission{}, fmt.Errorf("new submission: %w", err)
	}

	return Submission{
		ID:           ids.Generate(),
		Digest:       digest,
		ConfigName:   configName,
		Allotment:    tree.Allotment(),
		TotalPennies: tree.Total(),
		Allocations:  allocations,
		Percentages:  alloc.FlattenShares(tree.Root()),
	}, nil
}
