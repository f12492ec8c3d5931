package alloc

import (
	"fmt"
	"log/slog"
	"sort"
)

// Tree owns an allocation tree built by Build. Its shape is fixed; only
// amounts and shares change.
type Tree struct {
	root      *Node
	index     map[string]*Node
	allotment string
	logger    *slog.Logger
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Total returns the root amount in pennies.
func (t *Tree) Total() int64 { return t.root.amount }

// SetTotal sets the root amount and pushes it down the whole tree.
func (t *Tree) SetTotal(pennies int64) error {
	return t.root.SetAmount(pennies)
}

// Allotment returns the name of the allotment preset last applied, if any.
func (t *Tree) Allotment() string { return t.allotment }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.index) }

// Lookup finds a node by machine key.
func (t *Tree) Lookup(key string) (*Node, bool) {
	n, ok := t.index[NormalizeKey(key)]
	return n, ok
}

// MustLookup is Lookup for keys known to exist. It panics otherwise.
func (t *Tree) MustLookup(key string) *Node {
	n, ok := t.Lookup(key)
	if !ok {
		panic(fmt.Sprintf("alloc: no node with key %q", key))
	}
	return n
}

// Walk visits every node in pre-order, children in insertion order.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		fn(n, depth)
		for _, c := range n.children {
			walk(c, depth+1)
		}
	}
	walk(t.root, 0)
}

// Leaves returns the leaf nodes in pre-order.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	t.Walk(func(n *Node, _ int) {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	})
	return leaves
}

// Amounts returns every node's amount keyed by machine key.
func (t *Tree) Amounts() map[string]int64 {
	out := make(map[string]int64, len(t.index))
	for k, n := range t.index {
		out[k] = n.amount
	}
	return out
}

// CheckConservation verifies that every interior node's children sum to its
// amount, returning an error naming the first node in pre-order that does
// not.
func (t *Tree) CheckConservation() error {
	var err error
	t.Walk(func(n *Node, _ int) {
		if err != nil || n.IsLeaf() {
			return
		}
		var sum int64
		for _, c := range n.children {
			sum += c.amount
		}
		if sum != n.amount {
			err = fmt.Errorf("%w at %s: children sum to %d, amount is %d",
				ErrNotConserved, n.Path(), sum, n.amount)
		}
	})
	return err
}

// ResetDefaults restores every node to the share it was built with and
// recomputes all amounts from the current total.
func (t *Tree) ResetDefaults() {
	t.Walk(func(n *Node, _ int) {
		n.share = n.defaultShare
	})
	t.root.propagateDown()

	t.logger.Debug("shares reset to defaults", "total", t.root.amount)
}

// ApplyAllotment switches the tree to a named allotment preset. Every key in
// table receives its share, each affected sibling group is renormalized, and
// amounts are recomputed from the current total. Unknown keys and invalid
// shares are rejected before anything changes.
func (t *Tree) ApplyAllotment(name string, table Allotment) error {
	table = normalizeAllotment(table)

	// Deterministic order keeps error reporting stable.
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n, ok := t.index[k]
		if !ok {
			return newConfigError(ErrUnknownKey, "", "allotment %q names unknown key %q", name, k)
		}
		if n.parent == nil {
			return fmt.Errorf("allotment %q: %w", name, ErrRootShare)
		}
		if err := checkWeight(table[k]); err != nil {
			return newConfigError(ErrInvalidShare, n.Path(), "allotment %q: %v", name, err)
		}
	}

	var groups []*Node
	touched := make(map[*Node]bool)
	for _, k := range keys {
		n := t.index[k]
		n.share = table[k]
		if !touched[n.parent] {
			touched[n.parent] = true
			groups = append(groups, n.parent)
		}
	}

	for _, parent := range groups {
		shares := make([]float64, len(parent.children))
		for i, c := range parent.children {
			shares[i] = c.share
		}
		if normalizeShares(shares) {
			t.logger.Warn("allotment shares sum to zero, splitting evenly",
				"allotment", name,
				"parent", parent.Path(),
			)
		}
		for i, c := range parent.children {
			c.share = shares[i]
		}
	}

	t.root.propagateDown()
	t.allotment = name

	t.logger.Debug("allotment applied", "allotment", name, "keys", len(keys))
	return nil
}
