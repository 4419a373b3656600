// Package builderr defines the error taxonomy shared by analysis and
// execution. Every failure is fatal to the build; the Kind tells the CLI and
// the logs which stage produced it.
package builderr

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common build failure conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrUnknownTarget indicates a dependency or requested target label that
	// no build file declares.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrCycle indicates the dependency graph is not acyclic.
	ErrCycle = errors.New("dependency cycle")

	// ErrOutputConflict indicates two actions declare the same output file.
	ErrOutputConflict = errors.New("conflicting action outputs")

	// ErrMissingCapability indicates the toolchain lacks something a target needs.
	ErrMissingCapability = errors.New("missing toolchain capability")

	// ErrActionFailed indicates an external tool exited with a non-zero status.
	ErrActionFailed = errors.New("action failed")

	// ErrMissingOutput indicates an action succeeded without producing a declared output.
	ErrMissingOutput = errors.New("declared output was not created")
)

// Kind categorizes a build error by the stage that produced it.
type Kind string

const (
	// KindConfiguration covers malformed graphs, bad labels and toolchain gaps.
	// Detected during loading and analysis.
	KindConfiguration Kind = "configuration"

	// KindGeneration covers failures of the code generator invocation.
	KindGeneration Kind = "generation"

	// KindCompile covers failures of the compiler invocation.
	KindCompile Kind = "compile"

	// KindInternal covers bugs and I/O failures of the tool itself.
	KindInternal Kind = "internal"
)

// Error wraps an underlying error with the operation, target and category
// of the failure.
//
// Example usage:
//
//	err := &Error{
//		Op:    "executor.Run",
//		Kind:  KindGeneration,
//		Label: "//protos:api_proto",
//		Err:   ErrActionFailed,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "analysis.Evaluate").
	Op string

	// Kind categorizes the error.
	Kind Kind

	// Label is the target the failure is attributed to, if any.
	Label string

	// Err is the underlying error.
	Err error

	// Stderr holds the diagnostic output of a failed subprocess, verbatim.
	Stderr string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(string(e.Kind))
	sb.WriteString(" error")
	if e.Label != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Label)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(e.Stderr, "\n"))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(op string, kind Kind, label string, err error) *Error {
	return &Error{Op: op, Kind: kind, Label: label, Err: err}
}

// Configf creates a configuration error with a formatted message wrapping
// one of the sentinel errors, if the format contains %w.
func Configf(op, label, format string, args ...any) *Error {
	return New(op, KindConfiguration, label, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}
