// Package scaperr implements the error kinds of the system's boundary
// layer. ShapeMismatch and ImpossibleState are programmer errors and are
// raised as panics, per design; everything else here is a recoverable
// error value a caller can test with errors.Is/As.
package scaperr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a recoverable error.
type Kind int

const (
	InputFormat Kind = iota
	InfeasibleObservation
	NumericalFailure
	LineSearchFailure
	MissingEstimatedParameter
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case InfeasibleObservation:
		return "InfeasibleObservation"
	case NumericalFailure:
		return "NumericalFailure"
	case LineSearchFailure:
		return "LineSearchFailure"
	case MissingEstimatedParameter:
		return "MissingEstimatedParameter"
	default:
		return "UnknownErrorKind"
	}
}

// Error is a recoverable, classified error.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// New constructs a classified Error.
func New(k Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: k, msg: fmt.Sprintf(format, args...)})
}

// Wrap attaches k and stack context to an underlying error.
func Wrap(k Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(&Error{Kind: k, msg: fmt.Sprintf(format, args...)}, err.Error())
}

// Is reports whether err (or any error it wraps) is a scaperr.Error of
// kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// ShapeMismatch panics; a shape-incompatible Mat broadcast is always a
// programmer error in the value-function or cost-function code, never a
// condition a caller should recover from.
func ShapeMismatch(format string, args ...interface{}) {
	panic(fmt.Sprintf("ShapeMismatch: "+format, args...))
}

// ImpossibleState panics; reaching a Bad state or a zero-sum option set
// inside the simulator indicates a bug in the state-space contract or
// the value-function engine, not a recoverable condition.
func ImpossibleState(format string, args ...interface{}) {
	panic(fmt.Sprintf("ImpossibleState: "+format, args...))
}
