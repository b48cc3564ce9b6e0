// Package errs defines the error kinds surfaced by the engine.
//
// Kinds classify failures for callers; they are matched with errors.As
// on the Error type rather than by concrete error types.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	NotInitialized      Kind = "not_initialized"
	AlreadyInitialized  Kind = "already_initialized"
	ParseFailure        Kind = "parse_failure"
	LanguageUnsupported Kind = "language_unsupported"
	OversizedFile       Kind = "oversized_file"
	StoreIntegrity      Kind = "store_integrity"
	LockContention      Kind = "lock_contention"
	PathEscape          Kind = "path_escape"
	EmbeddingUnavailable Kind = "embedding_unavailable"
)

// Error carries a kind, the offending path when one exists, and a short
// user-facing message. Internal stacks never leak through Error().
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with a kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// NewPath builds an Error tied to a file or directory path.
func NewPath(kind Kind, path, msg string) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
