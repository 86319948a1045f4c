// Package appointmenttest provides a scripted in-memory PageDriver.
package appointmenttest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

// Month is one rendered calendar page. Days lists the selectable day cells in
// reading order; an empty list renders a month with nothing to pick.
type Month struct {
	Month time.Month
	Year  int
	Days  []string
}

// Driver renders Months in order, advancing on each next-month click. Months
// past the end of the script render empty. Shown months are rendered side by
// side like a multi-month datepicker; the label is always the first one's.
type Driver struct {
	Months []Month
	// Shown is the number of months rendered at once (default 1).
	Shown int

	// FindErr forces Find to fail for a control.
	FindErr map[appointment.Control]error
	GotoErr error
	TimeErr error

	mu          sync.Mutex
	cursor      int
	clicks      map[appointment.Control]int
	typed       map[appointment.Control]string
	options     map[appointment.Control]string
	gotos       []string
	timeSelects int
	labelReads  int
	selectedDay string
	closed      bool
}

func (d *Driver) init() {
	if d.clicks == nil {
		d.clicks = map[appointment.Control]int{}
		d.typed = map[appointment.Control]string{}
		d.options = map[appointment.Control]string{}
	}
}

func (d *Driver) current() Month { return d.at(d.cursor) }

func (d *Driver) at(i int) Month {
	if i < len(d.Months) {
		return d.Months[i]
	}
	var last Month
	if len(d.Months) > 0 {
		last = d.Months[len(d.Months)-1]
	} else {
		last = Month{Month: time.January, Year: 2024}
	}
	extra := i - len(d.Months) + 1
	t := time.Date(last.Year, last.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, extra, 0)
	return Month{Month: t.Month(), Year: t.Year()}
}

// firstCell is the first selectable day in document order across the shown months.
func (d *Driver) firstCell() (Month, string, bool) {
	shown := d.Shown
	if shown < 1 {
		shown = 1
	}
	for i := d.cursor; i < d.cursor+shown; i++ {
		if m := d.at(i); len(m.Days) > 0 {
			return m, m.Days[0], true
		}
	}
	return Month{}, "", false
}

func (d *Driver) Goto(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if d.GotoErr != nil {
		return d.GotoErr
	}
	d.gotos = append(d.gotos, url)
	return nil
}

func (d *Driver) Find(_ context.Context, c appointment.Control, _ time.Duration) (appointment.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if err := d.FindErr[c]; err != nil {
		return nil, err
	}
	if c == appointment.ControlSelectableDay {
		m, day, ok := d.firstCell()
		if !ok {
			return nil, &appointment.PageError{Kind: appointment.ErrElementNotFound, Op: "find", Control: c}
		}
		return &element{d: d, control: c, text: day, month: m}, nil
	}
	return &element{d: d, control: c}, nil
}

func (d *Driver) SelectOption(_ context.Context, c appointment.Control, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if err := d.FindErr[c]; err != nil {
		return err
	}
	d.options[c] = value
	return nil
}

func (d *Driver) ReadMonthLabel(context.Context) (string, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.labelReads++
	m := d.current()
	return m.Month.String(), strconv.Itoa(m.Year), nil
}

func (d *Driver) SelectFirstAvailableTime(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TimeErr != nil {
		return d.TimeErr
	}
	d.timeSelects++
	return nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Driver) Clicks(c appointment.Control) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clicks[c]
}

func (d *Driver) Typed(c appointment.Control) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typed[c]
}

func (d *Driver) Option(c appointment.Control) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.options[c]
}

func (d *Driver) Gotos() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.gotos...)
}

func (d *Driver) TimeSelections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeSelects
}

// Advances is the number of next-month clicks.
func (d *Driver) Advances() int { return d.Clicks(appointment.ControlNextMonth) }

func (d *Driver) SelectedDay() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectedDay
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type element struct {
	d       *Driver
	control appointment.Control
	text    string
	month   Month
}

func (e *element) Click(context.Context) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	e.d.clicks[e.control]++
	switch e.control {
	case appointment.ControlNextMonth:
		e.d.cursor++
	case appointment.ControlSelectableDay:
		e.d.selectedDay = e.text
	}
	return nil
}

func (e *element) Type(_ context.Context, text string) error {
	e.d.mu.Lock()
	defer e.d.mu.Unlock()
	e.d.typed[e.control] = text
	return nil
}

func (e *element) Text(context.Context) (string, error) { return e.text, nil }

// Attribute mirrors the jQuery UI day cell: data-month is zero-based.
func (e *element) Attribute(_ context.Context, name string) (string, error) {
	if e.control != appointment.ControlSelectableDay {
		return "", nil
	}
	switch name {
	case "data-month":
		return strconv.Itoa(int(e.month.Month) - 1), nil
	case "data-year":
		return strconv.Itoa(e.month.Year), nil
	}
	return "", nil
}
