package alloc

import "math"

// distributeRemainder settles the difference between n's amount and the sum
// of its children one penny at a time. Pennies are added to the child with
// the largest shortfall below its ideal (children with an ideal of zero are
// skipped) and removed from the child with the largest excess over its ideal
// (children at zero are skipped). Ties go to the earliest child.
func (n *Node) distributeRemainder() {
	if n.IsLeaf() {
		return
	}

	var sum int64
	for _, c := range n.children {
		sum += c.amount
	}
	remainder := n.amount - sum
	if abs(remainder) > int64(len(n.children)) {
		n.logger().Warn("remainder exceeds one penny per child",
			"parent", n.key,
			"remainder", remainder,
			"children", len(n.children),
		)
	}

	for remainder > 0 {
		c := n.mostShort()
		if c == nil {
			n.logger().Warn("no child can take remainder", "parent", n.key, "remainder", remainder)
			return
		}
		c.amount++
		remainder--
	}

	for remainder < 0 {
		c := n.mostExcess()
		if c == nil {
			n.logger().Warn("no child can give up remainder", "parent", n.key, "remainder", remainder)
			return
		}
		c.amount--
		remainder++
	}
}

// mostShort returns the first child with the largest ideal-actual gap,
// ignoring children whose ideal is exactly zero.
func (n *Node) mostShort() *Node {
	total := float64(n.amount)

	var target *Node
	best := math.Inf(-1)
	for _, c := range n.children {
		ideal := c.share * total
		if ideal == 0 {
			continue
		}
		if gap := ideal - float64(c.amount); gap > best {
			best = gap
			target = c
		}
	}
	return target
}

// mostExcess returns the first child with the largest actual-ideal gap among
// children that still hold a penny.
func (n *Node) mostExcess() *Node {
	total := float64(n.amount)

	var target *Node
	best := math.Inf(-1)
	for _, c := range n.children {
		if c.amount <= 0 {
			continue
		}
		if gap := float64(c.amount) - c.share*total; gap > best {
			best = gap
			target = c
		}
	}
	return target
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
