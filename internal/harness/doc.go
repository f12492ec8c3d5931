// Package harness runs scripted edit scenarios against allocation trees.
//
// A scenario names a split document, applies a sequence of edits the way a
// form would, and checks the amounts after each edit and the tree at the end.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: drag-charity
//	description: "What this scenario validates"
//	config: ../configs/two-way.yaml
//	total: 100
//	steps:
//	  - op: set_share
//	    key: charity
//	    value: 0.5
//	    expect: {charity: 50, developers: 50}
//	  - op: commit_edit
//	    key: charity
//	    value: -5
//	    expect_error: negative
//	assertions:
//	  - type: conserved
//	  - type: shares
//	    expect: {charity: 0.5}
//	    tolerance: 1e-9
//
// The config path is relative to the scenario file. total, when present,
// overrides the document's total in pennies.
//
// # Operations
//
//   - set_share: value is a share in [0, 1]
//   - set_amount: value is pennies; an empty key means the root
//   - commit_edit: value is pennies typed into a node's field
//   - slide: value is a slider position out of 1000
//   - type_amount: value is dollar text such as "$12.50"
//   - apply_allotment: value is an allotment name from the document
//   - reset_defaults: no key or value
//
// # Assertion Types
//
//   - conserved: every parent equals the sum of its children
//   - amounts: node amounts in pennies
//   - shares: node shares of their parent
//   - share_sum: the children of key (default root) have shares summing to 1
//   - flattened: leaf percentages of the root total
//   - round_trip: export, JSON encode, import into a fresh tree, export again
//
// # Deterministic Testing
//
// Trace events are stamped from testutil.DeterministicClock and carry values
// as the scenario wrote them, so a scenario always renders the same
// canonical JSON trace. RunWithGolden compares that trace with
// testdata/golden/<name>.golden.
package harness
