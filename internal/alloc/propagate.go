package alloc

import (
	"fmt"
	"math"
)

// SetAmount assigns pennies to the node and pushes the change down to its
// descendants. On a non-root node the ancestors are then re-derived from
// their children's amounts, so conservation holds at every level.
func (n *Node) SetAmount(pennies int64) error {
	if pennies < 0 {
		return fmt.Errorf("set amount at %s: %d: %w", n.Path(), pennies, ErrNegativeAmount)
	}

	n.logger().Debug("set amount", "node", n.key, "from", n.amount, "to", pennies)

	n.amount = pennies
	n.propagateDown()
	if n.parent != nil {
		n.propagateUp()
	}
	return nil
}

// CommitEdit applies an amount typed directly into the node's field. The new
// amount flows down the node's own subtree and then up to the root: sibling
// shares are recomputed from amounts and each ancestor becomes the sum of its
// children. Siblings keep their amounts.
func (n *Node) CommitEdit(pennies int64) error {
	if pennies < 0 {
		return fmt.Errorf("commit edit at %s: %d: %w", n.Path(), pennies, ErrNegativeAmount)
	}

	n.logger().Debug("commit edit", "node", n.key, "from", n.amount, "to", pennies)

	n.amount = pennies
	n.propagateDown()
	n.propagateUp()
	return nil
}

// SetShare moves the node to a new share of its parent, as a slider drag
// does. The share is clamped to [0, 1]; the leftover is spread across the
// siblings by their weight relative to each other, or evenly when they all
// sit at zero. The parent's amount does not change.
func (n *Node) SetShare(share float64) error {
	if n.parent == nil {
		return fmt.Errorf("set share at %s: %w", n.Path(), ErrRootShare)
	}
	if math.IsNaN(share) {
		return fmt.Errorf("set share at %s: %w: NaN", n.Path(), ErrInvalidShare)
	}

	share = math.Max(0, math.Min(1, share))
	siblings := n.Siblings()
	if len(siblings) == 0 {
		// An only child always holds the whole parent.
		share = 1.0
	}

	parent := n.parent
	total := float64(parent.amount)
	leftover := 1.0 - share

	var siblingSum float64
	for _, s := range siblings {
		siblingSum += s.share
	}
	if siblingSum == 0 && len(siblings) > 0 {
		n.logger().Warn("sibling shares sum to zero, splitting leftover evenly",
			"node", n.key,
			"siblings", len(siblings),
			"leftover", leftover,
		)
	}

	for _, s := range siblings {
		if siblingSum == 0 {
			s.share = leftover / float64(len(siblings))
		} else {
			s.share = s.share / siblingSum * leftover
		}
		s.amount = int64(math.Round(s.share * total))
	}

	n.logger().Debug("set share", "node", n.key, "from", n.share, "to", share)

	n.share = share
	n.amount = int64(math.Round(share * total))

	parent.distributeRemainder()

	n.propagateDown()
	for _, s := range siblings {
		s.propagateDown()
	}
	return nil
}

// propagateDown recomputes every descendant from n's amount. Each level is
// floored, settled by remainder distribution, and only then descended into.
func (n *Node) propagateDown() {
	if n.IsLeaf() {
		return
	}

	n.ensureWeights()

	total := float64(n.amount)
	for _, c := range n.children {
		c.amount = int64(math.Floor(total * c.share))
	}
	n.distributeRemainder()

	for _, c := range n.children {
		c.propagateDown()
	}
}

// propagateUp walks from n to the root. At each level the siblings' shares
// become amount/sum and the parent's amount becomes the sum. A zero sum
// leaves the shares untouched.
func (n *Node) propagateUp() {
	for child := n; child.parent != nil; child = child.parent {
		parent := child.parent

		var sum int64
		for _, s := range parent.children {
			sum += s.amount
		}

		if sum > 0 {
			for _, s := range parent.children {
				s.share = float64(s.amount) / float64(sum)
			}
		} else {
			n.logger().Warn("sibling amounts sum to zero, keeping shares",
				"parent", parent.key,
			)
		}

		parent.amount = sum
	}
}

// ensureWeights makes n's child shares sum to one. A zero-sum group is reset
// to an even split; any other group off by more than shareTolerance is
// rescaled by its sum.
func (n *Node) ensureWeights() {
	var sum float64
	for _, c := range n.children {
		sum += c.share
	}
	if sum > 0 && math.Abs(sum-1) <= shareTolerance {
		return
	}

	if sum > 0 {
		n.logger().Warn("child shares do not sum to one, rescaling",
			"parent", n.key,
			"sum", sum,
		)
		for _, c := range n.children {
			c.share /= sum
		}
		return
	}

	n.logger().Warn("child shares sum to zero, splitting evenly",
		"parent", n.key,
		"children", len(n.children),
	)
	even := 1.0 / float64(len(n.children))
	for _, c := range n.children {
		c.share = even
	}
}
