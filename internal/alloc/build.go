package alloc

import (
	"fmt"
	"log/slog"
	"math"
)

// SplitSpec configures one split and, optionally, its nested sub-splits.
//
// A split names its share explicitly, or sets FromAllotment to look its share
// up by key in the allotment table. A sibling group in which no entry does
// either is split evenly.
type SplitSpec struct {
	Name          string
	Key           string
	Share         *float64
	FromAllotment bool
	Children      []SplitSpec
}

// Allotment maps machine keys to default shares.
type Allotment map[string]float64

// DefaultRootKey is the machine key given to the root when none is set.
const DefaultRootKey = "total"

type buildOptions struct {
	rootName      string
	rootKey       string
	allotmentName string
	allotment     Allotment
	logger        *slog.Logger
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithAllotment sets the allotment table used to resolve FromAllotment
// splits, along with the preset name recorded on the tree.
func WithAllotment(name string, table Allotment) BuildOption {
	return func(o *buildOptions) {
		o.allotmentName = name
		o.allotment = normalizeAllotment(table)
	}
}

// WithRootName sets the root's display name and machine key.
func WithRootName(name, key string) BuildOption {
	return func(o *buildOptions) {
		o.rootName = name
		o.rootKey = key
	}
}

// WithLogger sets the logger for degenerate-state warnings and debug traces.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// Build constructs a tree for total pennies from splits.
//
// Shares are resolved per sibling group and normalized by the group's sum.
// Amounts are then initialized top-down as round(parentAmount * share), with
// one remainder pass per level so children always sum to their parent.
func Build(total int64, splits []SplitSpec, opts ...BuildOption) (*Tree, error) {
	o := buildOptions{
		rootName: "Total",
		rootKey:  DefaultRootKey,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if total < 0 {
		return nil, newConfigError(ErrNegativeAmount, "", "total %d is negative", total)
	}

	rootKey := NormalizeKey(o.rootKey)
	if rootKey == "" {
		return nil, newConfigError(ErrMissingKey, "", "root key is empty")
	}

	t := &Tree{
		index:     make(map[string]*Node),
		allotment: o.allotmentName,
		logger:    o.logger,
	}
	root := &Node{
		name:         o.rootName,
		key:          rootKey,
		amount:       total,
		share:        1.0,
		defaultShare: 1.0,
		tree:         t,
	}
	t.root = root
	t.index[rootKey] = root

	if err := t.attach(root, splits, o.allotment); err != nil {
		return nil, err
	}

	t.initAmounts(root)

	t.logger.Debug("allocation tree built",
		"root", root.key,
		"total", total,
		"nodes", len(t.index),
		"allotment", o.allotmentName,
	)
	return t, nil
}

// attach creates parent's children from specs, recursively.
func (t *Tree) attach(parent *Node, specs []SplitSpec, table Allotment) error {
	if len(specs) == 0 {
		return nil
	}

	path := parent.Path()
	shares, err := resolveShares(specs, table, path)
	if err != nil {
		return err
	}
	if normalizeShares(shares) {
		t.logger.Warn("sibling shares sum to zero, splitting evenly",
			"parent", path,
			"children", len(shares),
		)
	}

	for i, spec := range specs {
		key := NormalizeKey(spec.Key)
		if key == "" {
			return newConfigError(ErrMissingKey, path, "split %d (%q) has no key", i, spec.Name)
		}
		if existing, dup := t.index[key]; dup {
			return newConfigError(ErrDuplicateKey, path+"/"+key,
				"key %q already used at %s", key, existing.Path())
		}

		child := &Node{
			name:         spec.Name,
			key:          key,
			share:        shares[i],
			defaultShare: shares[i],
			parent:       parent,
			tree:         t,
		}
		parent.children = append(parent.children, child)
		t.index[key] = child

		if err := t.attach(child, spec.Children, table); err != nil {
			return err
		}
	}
	return nil
}

// resolveShares resolves one sibling group. Resolution is uniform per group:
// either every entry is configured (explicitly or via the allotment table) or
// none is and the group splits evenly. A partially configured group is an
// error.
func resolveShares(group []SplitSpec, table Allotment, path string) ([]float64, error) {
	shares := make([]float64, len(group))

	configured := 0
	for _, s := range group {
		if s.Share != nil || s.FromAllotment {
			configured++
		}
	}
	if configured == 0 {
		for i := range shares {
			shares[i] = 1.0 / float64(len(group))
		}
		return shares, nil
	}

	for i, s := range group {
		var v float64
		switch {
		case s.Share != nil:
			v = *s.Share
		case s.FromAllotment:
			if table == nil {
				return nil, newConfigError(ErrUnresolvedShare, path,
					"split %q takes its share from the allotment table, but none is configured", s.Key)
			}
			var ok bool
			v, ok = table[NormalizeKey(s.Key)]
			if !ok {
				return nil, newConfigError(ErrUnresolvedShare, path,
					"allotment table has no share for %q", s.Key)
			}
		default:
			return nil, newConfigError(ErrUnresolvedShare, path,
				"split %q has no share while %d of its %d siblings are configured",
				s.Key, configured, len(group)-1)
		}
		if err := checkWeight(v); err != nil {
			return nil, newConfigError(ErrInvalidShare, path, "split %q: %v", s.Key, err)
		}
		shares[i] = v
	}
	return shares, nil
}

func checkWeight(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("share %v is not finite", v)
	}
	if v < 0 {
		return fmt.Errorf("share %v is negative", v)
	}
	return nil
}

// normalizeShares scales shares in place to sum to 1. A zero-sum group is
// split evenly; the return value reports that degenerate case.
func normalizeShares(shares []float64) bool {
	var sum float64
	for _, s := range shares {
		sum += s
	}
	if sum == 0 {
		for i := range shares {
			shares[i] = 1.0 / float64(len(shares))
		}
		return true
	}
	for i := range shares {
		shares[i] /= sum
	}
	return false
}

func normalizeAllotment(table Allotment) Allotment {
	if table == nil {
		return nil
	}
	out := make(Allotment, len(table))
	for k, v := range table {
		out[NormalizeKey(k)] = v
	}
	return out
}

// initAmounts assigns round(parent * share) at every level, settling each
// level's remainder before descending.
func (t *Tree) initAmounts(n *Node) {
	if n.IsLeaf() {
		return
	}
	total := float64(n.amount)
	for _, c := range n.children {
		c.amount = int64(math.Round(total * c.share))
	}
	n.distributeRemainder()
	for _, c := range n.children {
		t.initAmounts(c)
	}
}
