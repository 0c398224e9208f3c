// Package errors classifies the failures produced while reading a posts tree.
//
// Every error returned by the core packages is either an *Error carrying a
// Kind, or wraps one. Callers test the kind with the standard library:
//
//	if errors.Is(err, mdxerrors.ErrNotFound) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// Kind is the broad category of a failure.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindPermission      Kind = "permission"
	KindParse           Kind = "parse"
	KindInvalidArgument Kind = "invalid_argument"
	KindInternal        Kind = "internal"
)

// Sentinels matched by (*Error).Is. They carry no context of their own.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrPermission      = &Error{Kind: KindPermission}
	ErrParse           = &Error{Kind: KindParse}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// Error is a classified failure. Op names the operation ("list", "read",
// "slug"), Path the file or slug involved.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel (or any *Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// New returns a classified error with a formatted cause.
func New(kind Kind, op, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// FromFS classifies an error returned by the os / io/fs packages.
// Errors that are neither "not exist" nor "permission" are wrapped unchanged
// with the operation and path for context.
func FromFS(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, fs.ErrNotExist):
		return &Error{Kind: KindNotFound, Op: op, Path: path, Err: err}
	case stderrors.Is(err, fs.ErrPermission):
		return &Error{Kind: KindPermission, Op: op, Path: path, Err: err}
	default:
		return fmt.Errorf("%s %s: %w", op, path, err)
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ExitCode maps an error to a process exit code for the CLI.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInvalidArgument:
		return 2
	case KindNotFound:
		return 3
	case KindPermission:
		return 5
	case KindParse:
		return 6
	case KindInternal:
		return 10
	default:
		return 1
	}
}
