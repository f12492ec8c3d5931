// Package alloc implements the allocation tree: a total amount of integer
// pennies split across a static tree of weighted nodes.
//
// Every node carries an integer amount and a floating-point share of its
// parent's amount. The tree keeps the two views consistent:
//
//   - Downward propagation: when a node's amount changes, each child gets
//     floor(amount * share), then the leftover pennies are handed out one at
//     a time before descending into the children.
//   - Upward propagation: when a node's amount is edited directly, every
//     sibling's share is recomputed from the amounts and the parent's amount
//     becomes their sum, level by level up to the root.
//   - Sibling rebalancing: when a node's share is dragged, the leftover share
//     is spread over its siblings by their relative weight.
//
// # Conservation
//
// After any exported operation returns, the amounts of a node's children sum
// exactly to the node's own amount. Rounding never breaks this; remainder
// distribution settles it deterministically:
//
//   - Positive remainder: one penny at a time to the child furthest below its
//     ideal (share * parent amount). A child whose ideal is 0 never receives
//     a penny.
//   - Negative remainder: one penny at a time from the child furthest above
//     its ideal, among children still holding at least one penny.
//   - Ties go to the first child in insertion order.
//
// # Propagation Model
//
// Propagation is an explicit call made by the exported setters. Nodes do not
// observe each other, so a setter never re-enters its own remainder pass.
// A Tree is not safe for concurrent use.
package alloc
