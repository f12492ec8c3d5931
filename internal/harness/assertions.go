package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/splitspec"
)

// Default tolerances for float assertions.
const (
	DefaultShareTolerance   = 1e-9
	DefaultPercentTolerance = 1e-6
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Op)
		if event.Key != "" {
			fmt.Fprintf(&buf, " %s", event.Key)
		}
		if event.Value != "" {
			fmt.Fprintf(&buf, " %s", event.Value)
		}
		fmt.Fprintf(&buf, " %v\n", event.Amounts)
	}

	return buf.String()
}

// AssertionContext provides what assertions inspect.
type AssertionContext struct {
	Tree     *alloc.Tree
	Document *splitspec.Document
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result.Trace, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertConserved:
		return assertConserved(trace, actx.Tree)
	case AssertAmounts:
		return assertAmounts(trace, a, actx.Tree)
	case AssertShares:
		return assertShares(trace, a, actx.Tree)
	case AssertShareSum:
		return assertShareSum(trace, a, actx.Tree)
	case AssertFlattened:
		return assertFlattened(trace, a, actx.Tree)
	case AssertRoundTrip:
		return assertRoundTrip(trace, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertConserved(trace []TraceEvent, tree *alloc.Tree) error {
	if err := tree.CheckConservation(); err != nil {
		return &AssertionError{
			Type:     AssertConserved,
			Expected: "every parent equals the sum of its children",
			Actual:   err.Error(),
			Trace:    trace,
		}
	}
	return nil
}

func assertAmounts(trace []TraceEvent, a Assertion, tree *alloc.Tree) error {
	for _, k := range sortedKeys(a.Expect) {
		n, ok := tree.Lookup(k)
		if !ok {
			return unknownKey(AssertAmounts, k, trace)
		}
		want := a.Expect[k]
		if float64(n.Amount()) != want {
			return &AssertionError{
				Type:     AssertAmounts,
				Expected: fmt.Sprintf("%s = %v", k, want),
				Actual:   fmt.Sprintf("%s = %d", k, n.Amount()),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertShares(trace []TraceEvent, a Assertion, tree *alloc.Tree) error {
	tol := tolerance(a, DefaultShareTolerance)
	for _, k := range sortedKeys(a.Expect) {
		n, ok := tree.Lookup(k)
		if !ok {
			return unknownKey(AssertShares, k, trace)
		}
		want := a.Expect[k]
		if math.Abs(n.Share()-want) > tol {
			return &AssertionError{
				Type:     AssertShares,
				Expected: fmt.Sprintf("share of %s = %v (±%g)", k, want, tol),
				Actual:   fmt.Sprintf("%v", n.Share()),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertShareSum(trace []TraceEvent, a Assertion, tree *alloc.Tree) error {
	parent := tree.Root()
	if a.Key != "" {
		var ok bool
		parent, ok = tree.Lookup(a.Key)
		if !ok {
			return unknownKey(AssertShareSum, a.Key, trace)
		}
	}
	if parent.IsLeaf() {
		return &AssertionError{
			Type:     AssertShareSum,
			Expected: fmt.Sprintf("%s to have children", parent.Key()),
			Actual:   "leaf",
			Trace:    trace,
		}
	}

	var sum float64
	for _, c := range parent.Children() {
		sum += c.Share()
	}
	tol := tolerance(a, DefaultShareTolerance)
	if math.Abs(sum-1) > tol {
		return &AssertionError{
			Type:     AssertShareSum,
			Expected: fmt.Sprintf("shares under %s sum to 1 (±%g)", parent.Key(), tol),
			Actual:   fmt.Sprintf("%v", sum),
			Trace:    trace,
		}
	}
	return nil
}

func assertFlattened(trace []TraceEvent, a Assertion, tree *alloc.Tree) error {
	flat := alloc.FlattenShares(tree.Root())
	tol := tolerance(a, DefaultPercentTolerance)
	for _, k := range sortedKeys(a.Expect) {
		got, ok := flat[alloc.NormalizeKey(k)]
		if !ok {
			return &AssertionError{
				Type:     AssertFlattened,
				Expected: fmt.Sprintf("leaf %q", k),
				Actual:   fmt.Sprintf("leaves %v", sortedKeys(flat)),
				Trace:    trace,
			}
		}
		want := a.Expect[k]
		if math.Abs(got-want) > tol {
			return &AssertionError{
				Type:     AssertFlattened,
				Expected: fmt.Sprintf("%s = %v%% (±%g)", k, want, tol),
				Actual:   fmt.Sprintf("%v%%", got),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertRoundTrip exports the tree through JSON, imports it into a fresh
// tree built from the same document and requires an identical export.
func assertRoundTrip(trace []TraceEvent, actx *AssertionContext) error {
	want := alloc.Export(actx.Tree.Root())

	data, err := json.Marshal(want)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	var decoded alloc.Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("unmarshal snapshot: %w", err)
	}

	fresh, err := actx.Document.BuildTotal(actx.Tree.Total(),
		alloc.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return fmt.Errorf("rebuild tree: %w", err)
	}
	if err := alloc.Import(fresh.Root(), decoded); err != nil {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: "snapshot imports cleanly",
			Actual:   err.Error(),
			Trace:    trace,
		}
	}

	got := alloc.Export(fresh.Root())
	if !reflect.DeepEqual(normalizeSnapshot(want), normalizeSnapshot(got)) {
		return &AssertionError{
			Type:     AssertRoundTrip,
			Expected: want.String(),
			Actual:   got.String(),
			Trace:    trace,
		}
	}
	return nil
}

// normalizeSnapshot replaces empty child lists with nil so a decoded
// snapshot compares equal to the exported one.
func normalizeSnapshot(s alloc.Snapshot) alloc.Snapshot {
	if len(s.Children) == 0 {
		s.Children = nil
		return s
	}
	children := make([]alloc.Snapshot, len(s.Children))
	for i, c := range s.Children {
		children[i] = normalizeSnapshot(c)
	}
	s.Children = children
	return s
}

func unknownKey(typ, key string, trace []TraceEvent) error {
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("node with key %q", key),
		Actual:   "not found",
		Trace:    trace,
	}
}

func tolerance(a Assertion, def float64) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return def
}
