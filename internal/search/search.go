// Package search scans the appointment calendar month by month for the first
// selectable day.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

const (
	DefaultProbe          = 100 * time.Millisecond
	DefaultMaxAdvances    = 12
	DefaultElementTimeout = 6 * time.Second
)

type Engine struct {
	// Probe bounds the lookup of a selectable day in the rendered month.
	Probe time.Duration
	// MaxAdvances caps the next-month clicks of a single scan.
	MaxAdvances    int
	ElementTimeout time.Duration
	Logger         logrus.FieldLogger
}

func New(logger logrus.FieldLogger) *Engine {
	return &Engine{
		Probe:          DefaultProbe,
		MaxAdvances:    DefaultMaxAdvances,
		ElementTimeout: DefaultElementTimeout,
		Logger:         logger,
	}
}

// Result is a located candidate plus how many months were skipped to reach it.
type Result struct {
	Found    appointment.FoundDate
	Advances int
}

// Search returns the first selectable day from the current month forward and
// clicks it. It fails with appointment.ErrSearchExhausted once MaxAdvances
// empty months have been skipped.
func (e *Engine) Search(ctx context.Context, d appointment.PageDriver) (Result, error) {
	log := e.logger()
	for advances := 0; ; advances++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		month, year, err := d.ReadMonthLabel(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("read month label: %w", err)
		}

		cell, err := d.Find(ctx, appointment.ControlSelectableDay, e.probe())
		switch {
		case err == nil:
		case isAbsent(err):
			if advances >= e.maxAdvances() {
				return Result{}, fmt.Errorf("no selectable day after %d months: %w", advances, appointment.ErrSearchExhausted)
			}
			log.WithFields(logrus.Fields{"month": month, "year": year}).Info("no selectable day, going to the next month")
			if err := e.advance(ctx, d); err != nil {
				return Result{}, err
			}
			continue
		default:
			return Result{}, fmt.Errorf("find selectable day: %w", err)
		}

		day, err := cell.Text(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("read day cell: %w", err)
		}
		cellMonth, cellYear, ok, err := cellLabel(ctx, cell)
		if err != nil {
			return Result{}, err
		}
		if ok && (cellMonth != month || cellYear != year) {
			log.WithFields(logrus.Fields{"label": month + " " + year, "cell": cellMonth + " " + cellYear}).
				Info("first selectable day is in a later rendered month")
			month, year = cellMonth, cellYear
		}
		found, err := appointment.NewFoundDate(month, year, day)
		if err != nil {
			return Result{}, err
		}
		if err := cell.Click(ctx); err != nil {
			return Result{}, fmt.Errorf("click day %s: %w", found, err)
		}
		found.Clicked = true
		log.WithFields(logrus.Fields{"found": found.String(), "advances": advances}).Info("found first available date")
		return Result{Found: found, Advances: advances}, nil
	}
}

// SearchEarlier runs Search and reports whether the candidate beats ref.
func (e *Engine) SearchEarlier(ctx context.Context, ref time.Time, d appointment.PageDriver) (Result, bool, error) {
	res, err := e.Search(ctx, d)
	if err != nil {
		return Result{}, false, err
	}
	return res, res.Found.Before(ref), nil
}

func (e *Engine) advance(ctx context.Context, d appointment.PageDriver) error {
	next, err := d.Find(ctx, appointment.ControlNextMonth, e.elementTimeout())
	if err != nil {
		return fmt.Errorf("find next month: %w", err)
	}
	if err := next.Click(ctx); err != nil {
		return fmt.Errorf("click next month: %w", err)
	}
	return nil
}

// cellLabel reads the month and year a day cell belongs to from its
// data-month (zero-based) and data-year attributes. ok is false when the cell
// carries neither, and the header label applies.
func cellLabel(ctx context.Context, cell appointment.Element) (month, year string, ok bool, err error) {
	m, err := cell.Attribute(ctx, "data-month")
	if err != nil {
		return "", "", false, fmt.Errorf("read day cell month: %w", err)
	}
	y, err := cell.Attribute(ctx, "data-year")
	if err != nil {
		return "", "", false, fmt.Errorf("read day cell year: %w", err)
	}
	m, y = strings.TrimSpace(m), strings.TrimSpace(y)
	if m == "" && y == "" {
		return "", "", false, nil
	}
	idx, err := strconv.Atoi(m)
	if err != nil || idx < 0 || idx > 11 || y == "" {
		return "", "", false, &appointment.PageError{
			Kind:    appointment.ErrUnexpectedPageState,
			Op:      "day cell month",
			Control: appointment.ControlSelectableDay,
			Err:     fmt.Errorf("data-month=%q data-year=%q", m, y),
		}
	}
	return time.Month(idx + 1).String(), y, true, nil
}

// isAbsent reports a month with nothing to pick. A control that was found but
// is in an unexpected state is not absent, whatever timeout it wraps.
func isAbsent(err error) bool {
	if errors.Is(err, appointment.ErrUnexpectedPageState) {
		return false
	}
	return errors.Is(err, appointment.ErrElementNotFound) || errors.Is(err, appointment.ErrTimeout)
}

func (e *Engine) probe() time.Duration {
	if e.Probe <= 0 {
		return DefaultProbe
	}
	return e.Probe
}

func (e *Engine) maxAdvances() int {
	if e.MaxAdvances <= 0 {
		return DefaultMaxAdvances
	}
	return e.MaxAdvances
}

func (e *Engine) elementTimeout() time.Duration {
	if e.ElementTimeout <= 0 {
		return DefaultElementTimeout
	}
	return e.ElementTimeout
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		return l
	}
	return e.Logger
}
