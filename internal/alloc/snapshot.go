package alloc

import (
	"fmt"
	"math"
	"strings"
)

// shareTolerance bounds how far a sibling group's shares may sum from one.
const shareTolerance = 1e-9

// Snapshot is the plain-data form of a node and its subtree.
type Snapshot struct {
	Amount   int64      `json:"amount" yaml:"amount"`
	Share    float64    `json:"share" yaml:"share"`
	Children []Snapshot `json:"children" yaml:"children"`
}

// Export captures n and its subtree.
func Export(n *Node) Snapshot {
	s := Snapshot{
		Amount:   n.amount,
		Share:    n.share,
		Children: make([]Snapshot, 0, len(n.children)),
	}
	for _, c := range n.children {
		s.Children = append(s.Children, Export(c))
	}
	return s
}

// Import loads data into n and its subtree. The snapshot must have the same
// shape as the tree, carry non-negative amounts and shares in [0, 1], give
// the root a share of 1, sum every sibling group's shares to 1, and conserve
// pennies at every level. It is checked in full before any node is modified.
func Import(n *Node, data Snapshot) error {
	if err := checkSnapshot(n, data); err != nil {
		return err
	}
	applySnapshot(n, data)

	n.logger().Debug("snapshot imported", "node", n.key, "amount", data.Amount)
	return nil
}

func checkSnapshot(n *Node, data Snapshot) error {
	path := n.Path()

	if data.Amount < 0 {
		return newConfigError(ErrNegativeAmount, path, "amount %d is negative", data.Amount)
	}
	if math.IsNaN(data.Share) || data.Share < 0 || data.Share > 1 {
		return newConfigError(ErrInvalidShare, path, "share %v is outside [0, 1]", data.Share)
	}
	if n.parent == nil && data.Share != 1 {
		return newConfigError(ErrInvalidShare, path, "root share %v, want 1", data.Share)
	}
	if len(data.Children) != len(n.children) {
		return newConfigError(ErrShapeMismatch, path,
			"snapshot has %d children, tree has %d", len(data.Children), len(n.children))
	}
	if len(data.Children) == 0 {
		return nil
	}

	var (
		sum    int64
		shares float64
	)
	for i, c := range n.children {
		if err := checkSnapshot(c, data.Children[i]); err != nil {
			return err
		}
		sum += data.Children[i].Amount
		shares += data.Children[i].Share
	}
	if math.Abs(shares-1) > shareTolerance {
		return newConfigError(ErrInvalidShare, path, "child shares sum to %v, want 1", shares)
	}
	if sum != data.Amount {
		return newConfigError(ErrNotConserved, path,
			"children sum to %d, amount is %d", sum, data.Amount)
	}
	return nil
}

func applySnapshot(n *Node, data Snapshot) {
	n.amount = data.Amount
	n.share = data.Share
	for i, c := range n.children {
		applySnapshot(c, data.Children[i])
	}
}

// FlattenShares maps every leaf key under n to its share of n's ancestors'
// product, on a 0-100 scale. Interior nodes pass their accumulated share down
// to their children.
func FlattenShares(n *Node) map[string]float64 {
	out := make(map[string]float64)
	flatten(n, 1.0, out)
	return out
}

func flatten(n *Node, ancestors float64, out map[string]float64) {
	product := ancestors * n.share
	if n.IsLeaf() {
		out[n.key] = product * 100
		return
	}
	for _, c := range n.children {
		flatten(c, product, out)
	}
}

// String renders a snapshot compactly for diagnostics.
func (s Snapshot) String() string {
	var b strings.Builder
	s.writeTo(&b)
	return b.String()
}

func (s Snapshot) writeTo(b *strings.Builder) {
	fmt.Fprintf(b, "%d@%.4f", s.Amount, s.Share)
	if len(s.Children) == 0 {
		return
	}
	b.WriteByte('[')
	for i, c := range s.Children {
		if i > 0 {
			b.WriteByte(' ')
		}
		c.writeTo(b)
	}
	b.WriteByte(']')
}
