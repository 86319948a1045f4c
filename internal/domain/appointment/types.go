package appointment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseReferenceDate parses a YYYY-MM-DD date of the appointment currently held.
func ParseReferenceDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// FoundDate is the first selectable day seen while scanning the calendar.
type FoundDate struct {
	Date    time.Time
	Clicked bool
}

// NewFoundDate builds a date from the widget header ("January", "2024") and
// the text of the selectable day cell ("15").
func NewFoundDate(month, year, day string) (FoundDate, error) {
	m, err := time.Parse("January", strings.TrimSpace(month))
	if err != nil {
		return FoundDate{}, &PageError{Kind: ErrUnexpectedPageState, Op: "parse month label", Err: fmt.Errorf("month %q", month)}
	}
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 {
		return FoundDate{}, &PageError{Kind: ErrUnexpectedPageState, Op: "parse month label", Err: fmt.Errorf("year %q", year)}
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > daysIn(m.Month(), y) {
		return FoundDate{}, &PageError{Kind: ErrUnexpectedPageState, Op: "parse day cell", Err: fmt.Errorf("day %q", day)}
	}
	return FoundDate{Date: time.Date(y, m.Month(), d, 0, 0, 0, 0, time.UTC)}, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Before reports whether the found date is strictly earlier than ref.
// An equal date is not earlier.
func (f FoundDate) Before(ref time.Time) bool {
	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return f.Date.Before(ref)
}

func (f FoundDate) String() string { return f.Date.Format(dateLayout) }

type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) String() string { return c.Email + ":<redacted>" }

// Target identifies the appointment to move and the consular section to book at.
type Target struct {
	AppointmentID string
	ConsularID    string
	Region        string
}

// Request is the immutable input of one attempt.
type Request struct {
	Reference   time.Time
	Credentials Credentials
	Target      Target
}

func (r Request) Validate() error {
	if r.Reference.IsZero() {
		return fmt.Errorf("reference date required")
	}
	if r.Credentials.Email == "" || r.Credentials.Password == "" {
		return fmt.Errorf("email and password required")
	}
	if r.Target.AppointmentID == "" {
		return fmt.Errorf("appointment id required")
	}
	if r.Target.ConsularID == "" {
		return fmt.Errorf("consular id required")
	}
	if r.Target.Region == "" {
		return fmt.Errorf("region required")
	}
	return nil
}
