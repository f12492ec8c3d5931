package alloc

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoHalves(t *testing.T) *Tree {
	t.Helper()
	return mustBuild(t, 100, []SplitSpec{
		{Key: "a", Share: share(0.5)},
		{Key: "b", Share: share(0.5)},
	})
}

func TestSetShare_DragToEightyPercent(t *testing.T) {
	tree := twoHalves(t)
	a, b := tree.MustLookup("a"), tree.MustLookup("b")

	require.NoError(t, a.SetShare(0.8))

	assert.InDelta(t, 0.8, a.Share(), 1e-12)
	assert.InDelta(t, 0.2, b.Share(), 1e-12)
	assert.Equal(t, int64(80), a.Amount())
	assert.Equal(t, int64(20), b.Amount())
	assert.Equal(t, int64(100), tree.Total())
}

func TestSetShare_LeftoverFollowsRelativeWeights(t *testing.T) {
	tree := mustBuild(t, 1000, []SplitSpec{
		{Key: "a", Share: share(0.5)},
		{Key: "b", Share: share(0.3)},
		{Key: "c", Share: share(0.2)},
	})
	a, b, c := tree.MustLookup("a"), tree.MustLookup("b"), tree.MustLookup("c")

	require.NoError(t, a.SetShare(0.0))

	// b and c keep their 3:2 ratio over the whole leftover.
	assert.InDelta(t, 0.6, b.Share(), 1e-12)
	assert.InDelta(t, 0.4, c.Share(), 1e-12)
	assert.Equal(t, []int64{0, 600, 400}, amountsOf(tree.Root().Children()))
	assert.InDelta(t, 1.0, shareSum(tree.Root().Children()), 1e-9)
}

func TestSetShare_ZeroSumSiblingsSplitEvenly(t *testing.T) {
	tree := mustBuild(t, 100, []SplitSpec{
		{Key: "a", Share: share(1)},
		{Key: "b", Share: share(0)},
		{Key: "c", Share: share(0)},
	})
	require.Equal(t, []int64{100, 0, 0}, amountsOf(tree.Root().Children()))

	require.NoError(t, tree.MustLookup("a").SetShare(0.4))

	assert.InDelta(t, 0.3, tree.MustLookup("b").Share(), 1e-12)
	assert.InDelta(t, 0.3, tree.MustLookup("c").Share(), 1e-12)
	assert.Equal(t, []int64{40, 30, 30}, amountsOf(tree.Root().Children()))
}

func TestSetShare_ClampsToUnitInterval(t *testing.T) {
	tree := twoHalves(t)
	a, b := tree.MustLookup("a"), tree.MustLookup("b")

	require.NoError(t, a.SetShare(1.7))
	assert.Equal(t, 1.0, a.Share())
	assert.Equal(t, 0.0, b.Share())
	assert.Equal(t, []int64{100, 0}, amountsOf(tree.Root().Children()))

	require.NoError(t, a.SetShare(-0.3))
	assert.Equal(t, 0.0, a.Share())
	assert.Equal(t, 1.0, b.Share())
	assert.Equal(t, []int64{0, 100}, amountsOf(tree.Root().Children()))
}

func TestSetShare_OnlyChildKeepsEverything(t *testing.T) {
	tree := mustBuild(t, 100, []SplitSpec{{Key: "solo"}})
	solo := tree.MustLookup("solo")

	require.NoError(t, solo.SetShare(0.25))

	assert.Equal(t, 1.0, solo.Share())
	assert.Equal(t, int64(100), solo.Amount())
}

func TestSetShare_CascadesIntoSubtrees(t *testing.T) {
	tree := charityTree(t, 1000)
	charity := tree.MustLookup("charity")

	require.NoError(t, charity.SetShare(0.5))

	assert.Equal(t, int64(500), charity.Amount())
	assert.Equal(t, int64(500), tree.MustLookup("developers").Amount())
	assert.Equal(t, int64(250), tree.MustLookup("animals").Amount())
	assert.Equal(t, int64(250), tree.MustLookup("people").Amount())
	require.NoError(t, tree.CheckConservation())
}

func TestSetShare_Errors(t *testing.T) {
	tree := twoHalves(t)

	err := tree.Root().SetShare(0.5)
	assert.True(t, errors.Is(err, ErrRootShare))

	err = tree.MustLookup("a").SetShare(math.NaN())
	assert.True(t, errors.Is(err, ErrInvalidShare))

	// Failed calls leave the tree untouched.
	assert.Equal(t, []int64{50, 50}, amountsOf(tree.Root().Children()))
}

func TestCommitEdit_PropagatesUp(t *testing.T) {
	tree := twoHalves(t)
	a, b := tree.MustLookup("a"), tree.MustLookup("b")

	require.NoError(t, a.CommitEdit(70))

	assert.Equal(t, int64(120), tree.Total())
	assert.Equal(t, int64(70), a.Amount())
	assert.Equal(t, int64(50), b.Amount())
	assert.InDelta(t, 70.0/120.0, a.Share(), 1e-12)
	assert.InDelta(t, 50.0/120.0, b.Share(), 1e-12)
}

func TestCommitEdit_ReachesRootThroughEveryLevel(t *testing.T) {
	tree := charityTree(t, 1000)
	// 800 charity (400/400), 200 developers.

	require.NoError(t, tree.MustLookup("animals").CommitEdit(600))

	charity := tree.MustLookup("charity")
	assert.Equal(t, int64(1000), charity.Amount())
	assert.Equal(t, int64(1200), tree.Total())
	assert.InDelta(t, 0.6, tree.MustLookup("animals").Share(), 1e-12)
	assert.InDelta(t, 1000.0/1200.0, charity.Share(), 1e-12)
	assert.InDelta(t, 200.0/1200.0, tree.MustLookup("developers").Share(), 1e-12)
	require.NoError(t, tree.CheckConservation())
}

func TestCommitEdit_InteriorNodePushesDownFirst(t *testing.T) {
	tree := charityTree(t, 1000)

	require.NoError(t, tree.MustLookup("charity").CommitEdit(301))

	assert.Equal(t, int64(501), tree.Total())
	// 150.5 each floors to 150; the spare penny goes to the first.
	assert.Equal(t, int64(151), tree.MustLookup("animals").Amount())
	assert.Equal(t, int64(150), tree.MustLookup("people").Amount())
	require.NoError(t, tree.CheckConservation())
}

func TestCommitEdit_ZeroSumKeepsShares(t *testing.T) {
	tree := twoHalves(t)
	a, b := tree.MustLookup("a"), tree.MustLookup("b")

	require.NoError(t, a.CommitEdit(0))
	require.NoError(t, b.CommitEdit(0))

	assert.Equal(t, int64(0), tree.Total())
	// After the first edit shares were 0/1; the zero-sum second edit keeps them.
	assert.Equal(t, 0.0, a.Share())
	assert.Equal(t, 1.0, b.Share())

	require.NoError(t, tree.SetTotal(100))
	assert.Equal(t, []int64{0, 100}, amountsOf(tree.Root().Children()))
}

func TestCommitEdit_RejectsNegative(t *testing.T) {
	tree := twoHalves(t)
	err := tree.MustLookup("a").CommitEdit(-1)
	assert.True(t, errors.Is(err, ErrNegativeAmount))
}

func TestSetAmount_RootPropagatesDown(t *testing.T) {
	tree := charityTree(t, 1000)

	require.NoError(t, tree.Root().SetAmount(2501))

	// floor(2000.8)=2000, floor(500.2)=500, spare penny to charity (gap 0.8).
	assert.Equal(t, int64(2001), tree.MustLookup("charity").Amount())
	assert.Equal(t, int64(500), tree.MustLookup("developers").Amount())
	// floor(1000.5) twice, spare penny to the first.
	assert.Equal(t, int64(1001), tree.MustLookup("animals").Amount())
	assert.Equal(t, int64(1000), tree.MustLookup("people").Amount())
}

func TestSetAmount_NonRootKeepsAncestorsConserved(t *testing.T) {
	tree := charityTree(t, 1000)

	require.NoError(t, tree.MustLookup("developers").SetAmount(400))

	assert.Equal(t, int64(1200), tree.Total())
	require.NoError(t, tree.CheckConservation())
}

func TestSetAmount_RejectsNegative(t *testing.T) {
	tree := twoHalves(t)
	err := tree.SetTotal(-5)
	assert.True(t, errors.Is(err, ErrNegativeAmount))
	assert.Equal(t, int64(100), tree.Total())
}

func TestPropagateDown_Idempotent(t *testing.T) {
	tree := charityTree(t, 9973)
	require.NoError(t, tree.MustLookup("animals").SetShare(0.37))

	root := tree.Root()
	root.propagateDown()
	once := Export(root)
	root.propagateDown()
	twice := Export(root)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second propagation changed the tree (-once +twice):\n%s", diff)
	}
}

func TestPropagateDown_ZeroSumSharesRecover(t *testing.T) {
	tree := twoHalves(t)
	root := tree.Root()
	for _, c := range root.Children() {
		c.share = 0
	}

	require.NoError(t, tree.SetTotal(9))

	assert.Equal(t, []int64{5, 4}, amountsOf(root.Children()))
	assert.InDelta(t, 1.0, shareSum(root.Children()), 1e-12)
}

// TestOperations_Conservation drives a random sequence of edits and checks
// conservation, non-negative amounts, share ranges, and share sums after
// every drag.
func TestOperations_Conservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tree := mustBuild(t, 2500, []SplitSpec{
		{
			Key: "charity", Share: share(0.65),
			Children: []SplitSpec{
				{Key: "animals"},
				{Key: "people"},
				{Key: "planet"},
			},
		},
		{Key: "developers", Share: share(0.25)},
		{
			Key: "tip", Share: share(0.10),
			Children: []SplitSpec{
				{Key: "store", Share: share(0.7)},
				{Key: "ops", Share: share(0.3)},
			},
		},
	})

	var nodes []*Node
	tree.Walk(func(n *Node, _ int) { nodes = append(nodes, n) })

	for step := 0; step < 500; step++ {
		n := nodes[rng.Intn(len(nodes))]
		switch op := rng.Intn(3); {
		case op == 0 && !n.IsRoot():
			require.NoError(t, n.SetShare(rng.Float64()*1.2-0.1))
			assert.InDelta(t, 1.0, shareSum(n.Parent().Children()), 1e-9, "step %d", step)
		case op == 1:
			require.NoError(t, n.CommitEdit(rng.Int63n(5000)))
		default:
			require.NoError(t, n.SetAmount(rng.Int63n(5000)))
		}

		require.NoError(t, tree.CheckConservation(), "step %d", step)
		tree.Walk(func(m *Node, _ int) {
			assert.GreaterOrEqual(t, m.Amount(), int64(0), "step %d node %s", step, m.Key())
			assert.GreaterOrEqual(t, m.Share(), 0.0, "step %d node %s", step, m.Key())
			assert.LessOrEqual(t, m.Share(), 1.0+1e-12, "step %d node %s", step, m.Key())
		})
	}
}

func TestPropagateDown_RescalesOffSumShares(t *testing.T) {
	tree := mustBuild(t, 100, []SplitSpec{
		{Name: "A", Key: "a", Share: share(0.5)},
		{Name: "B", Key: "b", Share: share(0.5)},
	})
	tree.MustLookup("a").share = 0.01
	tree.MustLookup("b").share = 0.01

	require.NoError(t, tree.Root().SetAmount(2_000_000_000))

	assert.Equal(t, int64(1_000_000_000), tree.MustLookup("a").Amount())
	assert.Equal(t, int64(1_000_000_000), tree.MustLookup("b").Amount())
	assert.InDelta(t, 0.5, tree.MustLookup("a").Share(), 1e-12)
	require.NoError(t, tree.CheckConservation())
}
