package alloc

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match with errors.Is; configuration failures arrive
// wrapped in a *ConfigError carrying the node path.
var (
	ErrUnresolvedShare = errors.New("share cannot be resolved")
	ErrInvalidShare    = errors.New("invalid share")
	ErrDuplicateKey    = errors.New("duplicate machine key")
	ErrMissingKey      = errors.New("missing machine key")
	ErrShapeMismatch   = errors.New("snapshot shape does not match tree")
	ErrNotConserved    = errors.New("children do not sum to parent amount")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrRootShare       = errors.New("root share is fixed")
	ErrUnknownKey      = errors.New("unknown machine key")
)

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	CodeUnresolvedShare ConfigErrorCode = "UNRESOLVED_SHARE"
	CodeInvalidShare    ConfigErrorCode = "INVALID_SHARE"
	CodeDuplicateKey    ConfigErrorCode = "DUPLICATE_KEY"
	CodeMissingKey      ConfigErrorCode = "MISSING_KEY"
	CodeShapeMismatch   ConfigErrorCode = "SHAPE_MISMATCH"
	CodeNotConserved    ConfigErrorCode = "NOT_CONSERVED"
	CodeNegativeAmount  ConfigErrorCode = "NEGATIVE_AMOUNT"
	CodeUnknownKey      ConfigErrorCode = "UNKNOWN_KEY"
	CodeGeneric         ConfigErrorCode = "CONFIG"
)

// ConfigError reports a malformed split list, allotment or
// snapshot. Configuration errors fail fast; nothing is patched silently.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Path is the slash-separated key path of the offending node.
	Path string

	// Message is a human-readable description.
	Message string

	// Err is the sentinel this error wraps.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func newConfigError(sentinel error, path, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    codeFor(sentinel),
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Err:     sentinel,
	}
}

func codeFor(sentinel error) ConfigErrorCode {
	switch sentinel {
	case ErrUnresolvedShare:
		return CodeUnresolvedShare
	case ErrInvalidShare:
		return CodeInvalidShare
	case ErrDuplicateKey:
		return CodeDuplicateKey
	case ErrMissingKey:
		return CodeMissingKey
	case ErrShapeMismatch:
		return CodeShapeMismatch
	case ErrNotConserved:
		return CodeNotConserved
	case ErrNegativeAmount:
		return CodeNegativeAmount
	case ErrUnknownKey:
		return CodeUnknownKey
	default:
		return CodeGeneric
	}
}
