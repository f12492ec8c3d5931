// Package splitspec loads split documents: the named split tree, allotment
// presets and default total that an allocation tree is built from.
//
// Documents may be written in YAML, JSON or CUE. Every format is checked
// against the same embedded CUE schema before it is used.
package splitspec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/money"
)

// DefaultTotal is the purchase total used when a document names none.
const DefaultTotal int64 = 2500

// DefaultAllotment is the preset used when a document defines one under this
// name and does not select another.
const DefaultAllotment = "default"

// Document is a parsed split document.
type Document struct {
	Name         string                        `json:"name" yaml:"name"`
	Description  string                        `json:"description,omitempty" yaml:"description,omitempty"`
	Total        string                        `json:"total,omitempty" yaml:"total,omitempty"`
	TotalPennies *int64                        `json:"total_pennies,omitempty" yaml:"total_pennies,omitempty"`
	Preset       string                        `json:"allotment,omitempty" yaml:"allotment,omitempty"`
	Allotments   map[string]map[string]float64 `json:"allotments,omitempty" yaml:"allotments,omitempty"`
	Entries      []Split                       `json:"splits,omitempty" yaml:"splits,omitempty"`

	// Path is the file the document was loaded from, if any.
	Path string `json:"-" yaml:"-"`
}

// Split is one entry in a document's split tree.
type Split struct {
	Name          string   `json:"name,omitempty" yaml:"name,omitempty"`
	Key           string   `json:"key" yaml:"key"`
	Share         *float64 `json:"share,omitempty" yaml:"share,omitempty"`
	FromAllotment bool     `json:"from_allotment,omitempty" yaml:"from_allotment,omitempty"`
	Splits        []Split  `json:"splits,omitempty" yaml:"splits,omitempty"`
}

// Splits converts the document's split tree for alloc.Build.
func (d *Document) Splits() []alloc.SplitSpec {
	return convertSplits(d.Entries)
}

func convertSplits(in []Split) []alloc.SplitSpec {
	if len(in) == 0 {
		return nil
	}
	out := make([]alloc.SplitSpec, len(in))
	for i, s := range in {
		out[i] = alloc.SplitSpec{
			Name:          s.Name,
			Key:           s.Key,
			Share:         s.Share,
			FromAllotment: s.FromAllotment,
			Children:      convertSplits(s.Splits),
		}
	}
	return out
}

// AllotmentNames returns the preset names in sorted order.
func (d *Document) AllotmentNames() []string {
	names := make([]string, 0, len(d.Allotments))
	for name := range d.Allotments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Allotment returns the named preset.
func (d *Document) Allotment(name string) (alloc.Allotment, bool) {
	table, ok := d.Allotments[name]
	if !ok {
		return nil, false
	}
	return alloc.Allotment(table), true
}

// SelectedAllotment returns the preset applied at build time: the one the
// document names, else DefaultAllotment if defined, else none.
func (d *Document) SelectedAllotment() string {
	if d.Preset != "" {
		return d.Preset
	}
	if _, ok := d.Allotments[DefaultAllotment]; ok {
		return DefaultAllotment
	}
	return ""
}

// ResolveTotal returns the document's total in pennies, or DefaultTotal.
func (d *Document) ResolveTotal() (int64, error) {
	switch {
	case d.Total != "" && d.TotalPennies != nil:
		return 0, &LoadError{Code: ErrCodeSchema, Message: "total and total_pennies are mutually exclusive"}
	case d.TotalPennies != nil:
		if *d.TotalPennies > money.MaxPennies {
			return 0, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("total_pennies %d exceeds %d", *d.TotalPennies, money.MaxPennies)}
		}
		return *d.TotalPennies, nil
	case d.Total != "":
		if !strings.ContainsAny(d.Total, "0123456789") {
			return 0, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("total %q is not an amount", d.Total)}
		}
		pennies, err := money.ParseAmount(d.Total)
		if err != nil {
			return 0, &LoadError{Code: ErrCodeSchema, Message: fmt.Sprintf("total %q: %v", d.Total, err), Err: err}
		}
		return pennies, nil
	default:
		return DefaultTotal, nil
	}
}

// Build constructs a tree for the document's own total.
func (d *Document) Build(opts ...alloc.BuildOption) (*alloc.Tree, error) {
	total, err := d.ResolveTotal()
	if err != nil {
		return nil, err
	}
	return d.BuildTotal(total, opts...)
}

// BuildTotal constructs a tree for total pennies, applying the selected
// allotment preset. Options given here are applied after the document's own.
func (d *Document) BuildTotal(total int64, opts ...alloc.BuildOption) (*alloc.Tree, error) {
	var docOpts []alloc.BuildOption
	if name := d.SelectedAllotment(); name != "" {
		table, ok := d.Allotment(name)
		if !ok {
			return nil, &LoadError{
				Code:    ErrCodeBuild,
				Message: fmt.Sprintf("allotment %q is not defined (have %s)", name, strings.Join(d.AllotmentNames(), ", ")),
			}
		}
		docOpts = append(docOpts, alloc.WithAllotment(name, table))
	}

	tree, err := alloc.Build(total, d.Splits(), append(docOpts, opts...)...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuild, Message: err.Error(), Err: err}
	}
	return tree, nil
}
