// Package present maps an allocation tree onto form controls: one row per
// node with a dollar field and, for every non-root node, a slider.
package present

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/money"
)

// SliderIncrements is the number of steps across a slider's full range.
const SliderIncrements = 1000

// MinimumTotal is the smallest purchase accepted, in pennies.
const MinimumTotal = 1

// ErrBelowMinimum is returned by Validate for a total under MinimumTotal.
var ErrBelowMinimum = errors.New("total is below the minimum")

// Row is one node as a form shows it.
type Row struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Depth       int     `json:"depth"`
	FieldName   string  `json:"field"`
	Display     string  `json:"display"`
	Amount      int64   `json:"amount"`
	SliderValue int     `json:"slider"`
	Percent     float64 `json:"percent"`
	Leaf        bool    `json:"leaf"`
}

// Rows lists the tree's nodes in pre-order.
func Rows(tree *alloc.Tree) []Row {
	var rows []Row
	tree.Walk(func(n *alloc.Node, depth int) {
		rows = append(rows, Row{
			Key:         n.Key(),
			Name:        n.Name(),
			Depth:       depth,
			FieldName:   FieldName(n),
			Display:     DisplayAmount(n),
			Amount:      n.Amount(),
			SliderValue: SliderValue(n),
			Percent:     n.Share() * 100,
			Leaf:        n.IsLeaf(),
		})
	})
	return rows
}

// FieldName returns the form field name for n: "split-<key>" for leaves,
// "amount-<key>" for everything else.
func FieldName(n *alloc.Node) string {
	if n.IsLeaf() && !n.IsRoot() {
		return "split-" + n.Key()
	}
	return "amount-" + n.Key()
}

// DisplayAmount formats n's amount for its dollar field.
func DisplayAmount(n *alloc.Node) string {
	return money.Format(n.Amount())
}

// SliderValue returns n's share in slider steps.
func SliderValue(n *alloc.Node) int {
	return int(math.Round(n.Share() * SliderIncrements))
}

// Slide applies a slider position to n.
func Slide(n *alloc.Node, value int) error {
	if err := n.SetShare(float64(value) / SliderIncrements); err != nil {
		return fmt.Errorf("slide %s to %d: %w", n.Key(), value, err)
	}
	return nil
}

// TypeAmount commits text typed into n's dollar field.
func TypeAmount(n *alloc.Node, text string) error {
	pennies, err := money.ParseAmount(text)
	if err != nil {
		return fmt.Errorf("type %q into %s: %w", text, n.Key(), err)
	}
	if err := n.CommitEdit(pennies); err != nil {
		return fmt.Errorf("type %q into %s: %w", text, n.Key(), err)
	}
	return nil
}

// Validate rejects a tree whose total is under MinimumTotal.
func Validate(tree *alloc.Tree) error {
	if tree.Total() < MinimumTotal {
		return fmt.Errorf("%w: %s is less than %s",
			ErrBelowMinimum, money.Format(tree.Total()), money.Format(MinimumTotal))
	}
	return nil
}

// Render writes an indented text view of the tree, one node per line.
func Render(w io.Writer, tree *alloc.Tree) error {
	for _, r := range Rows(tree) {
		label := r.Name
		if label == "" {
			label = r.Key
		}
		indent := strings.Repeat("  ", r.Depth)
		if _, err := fmt.Fprintf(w, "%-28s %12s %6.2f%%\n", indent+label, r.Display, r.Percent); err != nil {
			return err
		}
	}
	return nil
}
