package alloc

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func share(v float64) *float64 { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustBuild(t *testing.T, total int64, splits []SplitSpec, opts ...BuildOption) *Tree {
	t.Helper()
	opts = append([]BuildOption{WithLogger(quietLogger())}, opts...)
	tree, err := Build(total, splits, opts...)
	require.NoError(t, err)
	require.NoError(t, tree.CheckConservation())
	return tree
}

// charityTree is the two-level layout used across tests:
//
//	total
//	├── charity 0.8
//	│   ├── animals 0.5
//	│   └── people  0.5
//	└── developers 0.2
func charityTree(t *testing.T, total int64) *Tree {
	t.Helper()
	return mustBuild(t, total, []SplitSpec{
		{
			Name: "Charity", Key: "charity", Share: share(0.8),
			Children: []SplitSpec{
				{Name: "Animals", Key: "animals", Share: share(0.5)},
				{Name: "People", Key: "people", Share: share(0.5)},
			},
		},
		{Name: "Developers", Key: "developers", Share: share(0.2)},
	})
}

func amountsOf(nodes []*Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.Amount()
	}
	return out
}

func shareSum(nodes []*Node) float64 {
	var sum float64
	for _, n := range nodes {
		sum += n.Share()
	}
	return sum
}
