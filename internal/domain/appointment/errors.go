package appointment

import (
	"errors"
	"fmt"
)

var (
	ErrElementNotFound     = errors.New("element not found")
	ErrTimeout             = errors.New("timed out")
	ErrNavigation          = errors.New("navigation failed")
	ErrUnexpectedPageState = errors.New("unexpected page state")
)

// PageError carries the operation and control that failed. errors.Is matches
// both Kind and the wrapped cause.
type PageError struct {
	Kind    error
	Op      string
	Control Control
	Err     error
}

func (e *PageError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Control != "" {
		msg += fmt.Sprintf(" (%s)", e.Control)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FailureKind maps an error to a low-cardinality label for logs, metrics and
// history rows. The most specific kind wins when several are wrapped.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnexpectedPageState):
		return "unexpected_page_state"
	case errors.Is(err, ErrNavigation):
		return "navigation"
	case errors.Is(err, ErrElementNotFound):
		return "element_not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}
