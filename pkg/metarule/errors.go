package metarule

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind discriminates the fatal error categories this core ever
// reports to a caller. Depth/budget exhaustion and forward-prover
// cancellation are deliberately NOT error kinds: they are not errors at
// all, and surface as empty or partial results instead.
type ErrorKind int

const (
	// KindInputContract marks a malformed sentence/rule string, a
	// substitution binding that violates the non-empty/no-special
	// invariant, an incompatible disjoint merge, or an attempt to
	// apply a rule to a proof whose premises are not already present.
	KindInputContract ErrorKind = iota
	// KindSolverInfeasible marks infeasibility reported by the external
	// MAX-SAT adapter. There is no fallback within the core.
	KindSolverInfeasible
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputContract:
		return "input-contract violation"
	case KindSolverInfeasible:
		return "solver infeasible"
	default:
		return "unknown error kind"
	}
}

// Error is the core's single fatal-error type. It always carries a Kind
// so a caller can distinguish categories without string-matching, and a
// stack trace (via github.com/pkg/errors) so CLI diagnostics can print
// where the violation was raised.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// newInputContractError builds a stack-carrying KindInputContract error.
func newInputContractError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindInputContract,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.New(fmt.Sprintf(format, args...)),
	}
}

// wrapInputContractError wraps an existing cause as a KindInputContract
// error, preserving its stack via errors.WithStack.
func wrapInputContractError(cause error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindInputContract,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.WithStack(cause),
	}
}

// newSolverInfeasibleError builds a stack-carrying KindSolverInfeasible error.
func newSolverInfeasibleError(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindSolverInfeasible,
		Message: fmt.Sprintf(format, args...),
		cause:   errors.New(fmt.Sprintf(format, args...)),
	}
}

// IsInputContract reports whether err is (or wraps) a KindInputContract error.
func IsInputContract(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindInputContract
}

// IsSolverInfeasible reports whether err is (or wraps) a KindSolverInfeasible error.
func IsSolverInfeasible(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindSolverInfeasible
}
