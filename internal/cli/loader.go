package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/allot/internal/alloc"
	"github.com/roach88/allot/internal/money"
	"github.com/roach88/allot/internal/present"
	"github.com/roach88/allot/internal/splitspec"
)

// Error code constants - unified across all CLI commands. Split document
// codes come from splitspec so the two never disagree.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeNoFile    = splitspec.ErrCodeNoFile
	ErrCodeParse     = splitspec.ErrCodeParse
	ErrCodeNotFound  = "E005" // Snapshot file, database or directory not found
	ErrCodeSchema    = splitspec.ErrCodeSchema
	ErrCodeWrite     = "E007" // File write error
	ErrCodeBuild     = splitspec.ErrCodeBuild
	ErrCodeBadOp     = "E009" // Edit operation does not parse
	ErrCodeEdit      = "E010" // Edit rejected by the tree
	ErrCodeSnapshot  = "E011" // Snapshot rejected on import
	ErrCodeMinimum   = "E012" // Total below the minimum purchase
	ErrCodeStore     = "E013" // Submission log failure
	ErrCodeNotStored = "E014" // Submission ID not in the log
)

// codedError tags an error with a CLI error code.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// TreeOptions holds the flags shared by commands that build a tree.
type TreeOptions struct {
	Total     string // dollar text overriding the document's total
	Allotment string // preset applied after building
	Snapshot  string // JSON snapshot imported after building
}

func (o *TreeOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Total, "total", "", `purchase total, e.g. "$40.00"`)
	cmd.Flags().StringVar(&o.Allotment, "allotment", "", "allotment preset to apply")
	cmd.Flags().StringVar(&o.Snapshot, "snapshot", "", "import a JSON snapshot after building")
}

// loadTree loads a split document and builds its tree. The total comes from
// --total, then the document, then ALLOT_DEFAULT_TOTAL, then the built-in
// default. An allotment and a snapshot are applied in that order.
func loadTree(opts *RootOptions, tOpts *TreeOptions, path string) (*splitspec.Document, *alloc.Tree, error) {
	opts.ensure()

	doc, err := splitspec.Load(path)
	if err != nil {
		return nil, nil, err
	}

	total, err := resolveTotal(opts, tOpts, doc)
	if err != nil {
		return nil, nil, err
	}

	tree, err := doc.BuildTotal(total, alloc.WithLogger(opts.Logger))
	if err != nil {
		return nil, nil, err
	}

	if tOpts.Allotment != "" {
		if err := applyAllotment(doc, tree, tOpts.Allotment); err != nil {
			return nil, nil, err
		}
	}

	if tOpts.Snapshot != "" {
		if err := importSnapshot(tree, tOpts.Snapshot); err != nil {
			return nil, nil, err
		}
	}

	opts.Logger.Debug("tree loaded",
		"document", doc.Name,
		"total", tree.Total(),
		"nodes", tree.Len(),
		"allotment", tree.Allotment(),
	)
	return doc, tree, nil
}

func resolveTotal(opts *RootOptions, tOpts *TreeOptions, doc *splitspec.Document) (int64, error) {
	if tOpts.Total != "" {
		if !strings.ContainsAny(tOpts.Total, "0123456789") {
			return 0, withCode(ErrCodeBadOp, fmt.Errorf("--total %q is not an amount", tOpts.Total))
		}
		pennies, err := money.ParseAmount(tOpts.Total)
		if err != nil {
			return 0, withCode(ErrCodeBadOp, fmt.Errorf("--total %q: %w", tOpts.Total, err))
		}
		return pennies, nil
	}
	if doc.Total == "" && doc.TotalPennies == nil {
		if pennies, ok := opts.Config.DefaultTotalPennies(); ok {
			return pennies, nil
		}
	}
	return doc.ResolveTotal()
}

func applyAllotment(doc *splitspec.Document, tree *alloc.Tree, name string) error {
	table, ok := doc.Allotment(name)
	if !ok {
		return withCode(ErrCodeEdit, fmt.Errorf("allotment %q is not defined (have %s)",
			name, strings.Join(doc.AllotmentNames(), ", ")))
	}
	return withCode(ErrCodeEdit, tree.ApplyAllotment(name, table))
}

func importSnapshot(tree *alloc.Tree, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return withCode(ErrCodeNotFound, fmt.Errorf("reading snapshot: %w", err))
	}
	var snap alloc.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return withCode(ErrCodeSnapshot, fmt.Errorf("decoding snapshot %s: %w", path, err))
	}
	return withCode(ErrCodeSnapshot, alloc.Import(tree.Root(), snap))
}

// EditOp is one parsed edit from the command line.
type EditOp struct {
	Kind  string // share, amount, commit, slide, reset, allot
	Key   string
	Value string
}

// ParseEditOp parses an edit argument:
//
//	share:KEY=0.8      move KEY to a share of its parent
//	amount:KEY=$12     set KEY's amount and push it down
//	commit:KEY=$12     type an amount into KEY's field
//	slide:KEY=800      move KEY's slider (0-1000)
//	allot:NAME         apply an allotment preset
//	reset              restore built shares
func ParseEditOp(arg string) (EditOp, error) {
	if arg == "reset" {
		return EditOp{Kind: "reset"}, nil
	}

	kind, rest, ok := strings.Cut(arg, ":")
	if !ok || rest == "" {
		return EditOp{}, withCode(ErrCodeBadOp, fmt.Errorf("edit %q: want KIND:KEY=VALUE, allot:NAME or reset", arg))
	}

	switch kind {
	case "allot":
		return EditOp{Kind: kind, Value: rest}, nil
	case "share", "amount", "commit", "slide":
		key, value, ok := strings.Cut(rest, "=")
		if !ok || key == "" || value == "" {
			return EditOp{}, withCode(ErrCodeBadOp, fmt.Errorf("edit %q: want %s:KEY=VALUE", arg, kind))
		}
		return EditOp{Kind: kind, Key: key, Value: value}, nil
	default:
		return EditOp{}, withCode(ErrCodeBadOp, fmt.Errorf("edit %q: unknown kind %q", arg, kind))
	}
}

// ParseEditOps parses every argument, stopping at the first bad one.
func ParseEditOps(args []string) ([]EditOp, error) {
	ops := make([]EditOp, 0, len(args))
	for _, arg := range args {
		op, err := ParseEditOp(arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// applyEdits applies ops to tree in order.
func applyEdits(doc *splitspec.Document, tree *alloc.Tree, ops []EditOp) error {
	for _, op := range ops {
		if err := applyEdit(doc, tree, op); err != nil {
			return err
		}
	}
	return nil
}

func applyEdit(doc *splitspec.Document, tree *alloc.Tree, op EditOp) error {
	switch op.Kind {
	case "reset":
		tree.ResetDefaults()
		return nil
	case "allot":
		return applyAllotment(doc, tree, op.Value)
	}

	n, ok := tree.Lookup(op.Key)
	if !ok {
		return withCode(ErrCodeEdit, fmt.Errorf("%s: %w: %q", op.Kind, alloc.ErrUnknownKey, op.Key))
	}

	var err error
	switch op.Kind {
	case "share":
		share, perr := strconv.ParseFloat(op.Value, 64)
		if perr != nil {
			return withCode(ErrCodeBadOp, fmt.Errorf("share %q: %w", op.Value, perr))
		}
		err = n.SetShare(share)
	case "amount":
		if !strings.ContainsAny(op.Value, "0123456789") {
			return withCode(ErrCodeBadOp, fmt.Errorf("amount %q is not an amount", op.Value))
		}
		pennies, perr := money.ParseAmount(op.Value)
		if perr != nil {
			return withCode(ErrCodeBadOp, fmt.Errorf("amount %q: %w", op.Value, perr))
		}
		err = n.SetAmount(pennies)
	case "commit":
		if !strings.ContainsAny(op.Value, "0123456789") {
			return withCode(ErrCodeBadOp, fmt.Errorf("amount %q is not an amount", op.Value))
		}
		if _, perr := money.ParseAmount(op.Value); perr != nil {
			return withCode(ErrCodeBadOp, fmt.Errorf("amount %q: %w", op.Value, perr))
		}
		err = present.TypeAmount(n, op.Value)
	case "slide":
		pos, perr := strconv.Atoi(op.Value)
		if perr != nil {
			return withCode(ErrCodeBadOp, fmt.Errorf("slider position %q: %w", op.Value, perr))
		}
		err = present.Slide(n, pos)
	default:
		err = fmt.Errorf("unknown edit kind %q", op.Kind)
	}
	return withCode(ErrCodeEdit, err)
}

// isNotFound reports whether err is a missing file.
func isNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
