package harness

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/present"
	"github.com/roach88/allot/internal/splitspec"
	"github.com/roach88/allot/internal/testutil"
)

// Harness applies scenario steps to one tree.
type Harness struct {
	doc    *splitspec.Document
	tree   *alloc.Tree
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario builds a fresh tree from its split document, so runs are
// independent. Step failures and assertion failures are recorded on the
// result; an error is returned only when the scenario cannot run at all.
//
// Execution flow:
// 1. Load the split document and build the tree
// 2. Apply steps in order, checking each step's expectations
// 3. Evaluate the final assertions
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	doc, err := splitspec.Load(scenario.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var tree *alloc.Tree
	if scenario.Total != nil {
		tree, err = doc.BuildTotal(*scenario.Total, alloc.WithLogger(logger))
	} else {
		tree, err = doc.Build(alloc.WithLogger(logger))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}

	h := &Harness{
		doc:    doc,
		tree:   tree,
		clock:  testutil.NewDeterministicClock(),
		logger: logger,
	}

	result := NewResult()
	result.Config = doc.Name
	result.Tree = tree
	result.AddTrace(h.clock.Next(), "build", "", strconv.FormatInt(tree.Total(), 10), tree.Amounts(), nil)

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	actx := &AssertionContext{
		Tree:     tree,
		Document: doc,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep applies one step, traces it and checks its expectations.
func (h *Harness) executeStep(index int, step Step, result *Result) {
	label := fmt.Sprintf("steps[%d] (%s)", index, step.Op)

	before := h.tree.Amounts()
	key, err := h.apply(step)
	after := h.tree.Amounts()
	result.AddTrace(h.clock.Next(), step.Op, key, step.Value, after, err)

	h.logger.Debug("step applied", "index", index, "op", step.Op, "key", key, "error", err)

	switch {
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("%s: expected error containing %q, got none", label, step.ExpectError))
	case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
		result.AddError(fmt.Sprintf("%s: expected error containing %q, got %q", label, step.ExpectError, err))
	case step.ExpectError != "" && !maps.Equal(before, after):
		result.AddError(fmt.Sprintf("%s: failed step changed amounts", label))
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("%s: %v", label, err))
	}

	for _, k := range sortedKeys(step.Expect) {
		want := step.Expect[k]
		got, ok := after[alloc.NormalizeKey(k)]
		if !ok {
			result.AddError(fmt.Sprintf("%s: no node with key %q", label, k))
			continue
		}
		if got != want {
			result.AddError(fmt.Sprintf("%s: amount of %s = %d, want %d", label, k, got, want))
		}
	}
}

// apply performs the step's edit and returns the key of the node it touched.
func (h *Harness) apply(step Step) (string, error) {
	switch step.Op {
	case OpResetDefaults:
		h.tree.ResetDefaults()
		return "", nil
	case OpApplyAllotment:
		table, ok := h.doc.Allotment(step.Value)
		if !ok {
			return "", fmt.Errorf("allotment %q is not defined", step.Value)
		}
		return "", h.tree.ApplyAllotment(step.Value, table)
	}

	n := h.tree.Root()
	if step.Key != "" {
		var ok bool
		n, ok = h.tree.Lookup(step.Key)
		if !ok {
			return step.Key, fmt.Errorf("no node with key %q", step.Key)
		}
	}

	switch step.Op {
	case OpSetShare:
		share, err := strconv.ParseFloat(step.Value, 64)
		if err != nil {
			return n.Key(), fmt.Errorf("share %q: %w", step.Value, err)
		}
		return n.Key(), n.SetShare(share)
	case OpSetAmount:
		pennies, err := strconv.ParseInt(step.Value, 10, 64)
		if err != nil {
			return n.Key(), fmt.Errorf("amount %q: %w", step.Value, err)
		}
		return n.Key(), n.SetAmount(pennies)
	case OpCommitEdit:
		pennies, err := strconv.ParseInt(step.Value, 10, 64)
		if err != nil {
			return n.Key(), fmt.Errorf("amount %q: %w", step.Value, err)
		}
		return n.Key(), n.CommitEdit(pennies)
	case OpSlide:
		pos, err := strconv.Atoi(step.Value)
		if err != nil {
			return n.Key(), fmt.Errorf("slider position %q: %w", step.Value, err)
		}
		return n.Key(), present.Slide(n, pos)
	case OpTypeAmount:
		return n.Key(), present.TypeAmount(n, step.Value)
	default:
		return n.Key(), fmt.Errorf("unknown op %q", step.Op)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
