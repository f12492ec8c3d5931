package alloc

import (
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Node is one allocation unit: the root total, a named split, or a nested
// sub-split. Nodes are created by Build and only their amount and share
// change afterwards.
type Node struct {
	name string
	key  string

	amount       int64
	share        float64
	defaultShare float64

	// parent does not own the node; nil only for the root.
	parent   *Node
	children []*Node

	tree *Tree
}

// Name returns the display name.
func (n *Node) Name() string { return n.name }

// Key returns the machine key, unique across the tree.
func (n *Node) Key() string { return n.key }

// Amount returns the node's amount in pennies.
func (n *Node) Amount() int64 { return n.amount }

// Share returns the node's fraction of its parent's amount.
func (n *Node) Share() float64 { return n.share }

// DefaultShare returns the share resolved at construction.
func (n *Node) DefaultShare() float64 { return n.defaultShare }

// Parent returns the owning node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes in insertion order.
// The returned slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Siblings returns the parent's other children in insertion order.
func (n *Node) Siblings() []*Node {
	if n.parent == nil {
		return nil
	}
	siblings := make([]*Node, 0, len(n.parent.children)-1)
	for _, c := range n.parent.children {
		if c != n {
			siblings = append(siblings, c)
		}
	}
	return siblings
}

// Ideal returns the exact, unrounded amount the node's share entitles it to.
// For the root this is its own amount.
func (n *Node) Ideal() float64 {
	if n.parent == nil {
		return float64(n.amount)
	}
	return n.share * float64(n.parent.amount)
}

// Path returns the slash-separated key path from the root, e.g.
// "total/charity/animals".
func (n *Node) Path() string {
	if n.parent == nil {
		return n.key
	}
	return n.parent.Path() + "/" + n.key
}

// Depth returns the number of ancestors.
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

func (n *Node) logger() *slog.Logger {
	if n.tree == nil || n.tree.logger == nil {
		return slog.Default()
	}
	return n.tree.logger
}

// NormalizeKey trims and NFC-normalizes a machine key so visually identical
// keys compare equal.
func NormalizeKey(key string) string {
	return norm.NFC.String(strings.TrimSpace(key))
}
