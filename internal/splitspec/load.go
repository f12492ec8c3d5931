package splitspec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Format is a split document's source syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// Error codes, shared with the CLI's error envelope.
const (
	ErrCodeNoFile = "E003" // File missing or unreadable
	ErrCodeParse  = "E004" // Syntax error or unsupported format
	ErrCodeSchema = "E006" // Document does not match the schema
	ErrCodeBuild  = "E008" // Document cannot be built into a tree
)

// LoadError represents an error that occurred while loading or building a
// split document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("unsupported document extension %q", filepath.Ext(path))}
	}
}

// Load reads a split document from path.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNoFile, Message: fmt.Sprintf("reading split document: %v", err), Err: err}
	}

	doc, err := parse(data, format, path)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes a split document and validates it against the schema.
func Parse(data []byte, format Format) (*Document, error) {
	return parse(data, format, "document."+string(format))
}

func parse(data []byte, format Format, filename string) (*Document, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling document schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Document"))

	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &LoadError{Code: ErrCodeParse, Message: "document is empty"}
			}
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing YAML: %v", err), Err: err}
		}
		if err := checkSchema(def, ctx.Encode(doc)); err != nil {
			return nil, err
		}

	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("parsing JSON: %v", err), Err: err}
		}
		if err := checkSchema(def, ctx.Encode(doc)); err != nil {
			return nil, err
		}

	case FormatCUE:
		v := ctx.CompileBytes(data, cue.Filename(filename))
		if err := v.Err(); err != nil {
			return nil, cueLoadError(ErrCodeParse, err)
		}
		unified := def.Unify(v)
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, cueLoadError(ErrCodeSchema, err)
		}
		if err := unified.Decode(&doc); err != nil {
			return nil, cueLoadError(ErrCodeSchema, err)
		}

	default:
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("unsupported format %q", format)}
	}

	if _, err := doc.ResolveTotal(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func checkSchema(def, v cue.Value) error {
	if err := v.Err(); err != nil {
		return cueLoadError(ErrCodeSchema, err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return cueLoadError(ErrCodeSchema, err)
	}
	return nil
}

// cueLoadError keeps the position of the first CUE error, if it has one.
func cueLoadError(code string, err error) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), Err: err}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
