package appointment

import (
	"errors"
	"time"
)

type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeBooked
	OutcomeNoBetterDate
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBooked:
		return "booked"
	case OutcomeNoBetterDate:
		return "no_better_date"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSearchExhausted is returned when no selectable day shows up within the
// month-advance bound.
var ErrSearchExhausted = &PageError{Kind: ErrElementNotFound, Op: "date search exhausted"}

// Outcome is the result of one attempt. It is built once and passed by value.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Err    error
	Found  *FoundDate

	StartedAt  time.Time
	FinishedAt time.Time
}

func Booked(found FoundDate) Outcome {
	return Outcome{Kind: OutcomeBooked, Found: &found}
}

func NoBetterDate(found FoundDate) Outcome {
	return Outcome{Kind: OutcomeNoBetterDate, Found: &found}
}

func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("unknown failure")
	}
	reason := err.Error()
	if errors.Is(err, ErrSearchExhausted) {
		reason = "date search exhausted"
	}
	return Outcome{Kind: OutcomeFailed, Reason: reason, Err: err}
}

// Terminal reports whether the scheduler should stop polling.
func (o Outcome) Terminal() bool { return o.Kind == OutcomeBooked }

// FailureKind is empty unless the attempt failed.
func (o Outcome) FailureKind() string {
	if o.Kind != OutcomeFailed {
		return ""
	}
	return FailureKind(o.Err)
}

func (o Outcome) Duration() time.Duration {
	if o.StartedAt.IsZero() || o.FinishedAt.IsZero() {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}
