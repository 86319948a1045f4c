package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/domain/appointment/appointmenttest"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return New(logger)
}

func TestSearchSkipsEmptyMonths(t *testing.T) {
	ref, _ := appointment.ParseReferenceDate("2023-12-27")
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.December, Year: 2023},
		{Month: time.January, Year: 2024, Days: []string{"15", "16"}},
		{Month: time.February, Year: 2024, Days: []string{"1"}},
	}}

	res, earlier, err := newEngine(t).SearchEarlier(context.Background(), ref, d)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15", res.Found.String())
	assert.True(t, res.Found.Clicked)
	assert.False(t, earlier)
	assert.Equal(t, 1, res.Advances)
	assert.Equal(t, 1, d.Advances())
	assert.Equal(t, 1, d.Clicks(appointment.ControlSelectableDay))
	assert.Equal(t, "15", d.SelectedDay())
}

func TestSearchStopsOnFirstSelectableMonth(t *testing.T) {
	ref, _ := appointment.ParseReferenceDate("2024-03-01")
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.February, Year: 2024, Days: []string{"10"}},
		{Month: time.March, Year: 2024, Days: []string{"1"}},
	}}

	res, earlier, err := newEngine(t).SearchEarlier(context.Background(), ref, d)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-10", res.Found.String())
	assert.True(t, earlier)
	assert.Equal(t, 0, d.Advances())
}

func TestSearchAdvancesOncePerEmptyMonth(t *testing.T) {
	months := []appointmenttest.Month{
		{Month: time.June, Year: 2024},
		{Month: time.July, Year: 2024},
		{Month: time.August, Year: 2024},
		{Month: time.September, Year: 2024, Days: []string{"3"}},
	}
	d := &appointmenttest.Driver{Months: months}

	res, err := newEngine(t).Search(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Advances())
	assert.Equal(t, 3, res.Advances)
	assert.Equal(t, "2024-09-03", res.Found.String())
}

func TestSearchExhausted(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{{Month: time.January, Year: 2024}}}
	e := newEngine(t)
	e.MaxAdvances = 4

	_, err := e.Search(context.Background(), d)
	require.Error(t, err)
	assert.ErrorIs(t, err, appointment.ErrSearchExhausted)
	assert.ErrorIs(t, err, appointment.ErrElementNotFound)
	assert.Equal(t, 4, d.Advances())
}

func TestSearchIsRepeatable(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.April, Year: 2024, Days: []string{"8", "9"}},
	}}
	e := newEngine(t)

	first, err := e.Search(context.Background(), d)
	require.NoError(t, err)
	second, err := e.Search(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, first.Found, second.Found)
	assert.Equal(t, 0, d.Advances())
	assert.Equal(t, 2, d.Clicks(appointment.ControlSelectableDay))
}

func TestSearchPropagatesDriverFailures(t *testing.T) {
	boom := errors.New("target closed")
	d := &appointmenttest.Driver{
		Months:  []appointmenttest.Month{{Month: time.January, Year: 2024}},
		FindErr: map[appointment.Control]error{appointment.ControlNextMonth: &appointment.PageError{Kind: appointment.ErrTimeout, Control: appointment.ControlNextMonth}},
	}
	_, err := newEngine(t).Search(context.Background(), d)
	assert.ErrorIs(t, err, appointment.ErrTimeout)
	assert.NotErrorIs(t, err, appointment.ErrSearchExhausted)

	d = &appointmenttest.Driver{
		Months:  []appointmenttest.Month{{Month: time.January, Year: 2024, Days: []string{"2"}}},
		FindErr: map[appointment.Control]error{appointment.ControlSelectableDay: boom},
	}
	_, err = newEngine(t).Search(context.Background(), d)
	assert.ErrorIs(t, err, boom)
}

func TestSearchRejectsUnreadableDay(t *testing.T) {
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.April, Year: 2024, Days: []string{"x"}},
	}}
	_, err := newEngine(t).Search(context.Background(), d)
	assert.ErrorIs(t, err, appointment.ErrUnexpectedPageState)
	assert.Equal(t, 0, d.Clicks(appointment.ControlSelectableDay))
}

func TestSearchLogsSkippedMonths(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := &appointmenttest.Driver{Months: []appointmenttest.Month{
		{Month: time.December, Year: 2023},
		{Month: time.January, Year: 2024, Days: []string{"15"}},
	}}
	_, err := New(logger).Search(context.Background(), d)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "December", entries[0].Data["month"])
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)
	assert.Equal(t, "2024-01-15", entries[1].Data["found"])
}

func TestSearchTwoMonthPickerUsesCellMonth(t *testing.T) {
	ref, _ := appointment.ParseReferenceDate("2023-12-27")
	d := &appointmenttest.Driver{
		Shown: 2,
		Months: []appointmenttest.Month{
			{Month: time.December, Year: 2023},
			{Month: time.January, Year: 2024, Days: []string{"15"}},
		},
	}

	res, earlier, err := newEngine(t).SearchEarlier(context.Background(), ref, d)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-15", res.Found.String())
	assert.False(t, earlier, "a January cell next to a December header is not earlier than Dec 27")
	assert.Equal(t, 0, d.Advances())
	assert.Equal(t, "15", d.SelectedDay())
}

func TestSearchTwoMonthPickerPrefersFirstMonth(t *testing.T) {
	d := &appointmenttest.Driver{
		Shown: 2,
		Months: []appointmenttest.Month{
			{Month: time.March, Year: 2024, Days: []string{"28"}},
			{Month: time.April, Year: 2024, Days: []string{"2"}},
		},
	}
	res, err := newEngine(t).Search(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-28", res.Found.String())
}

func TestSearchFailsOnUnexpectedDayState(t *testing.T) {
	d := &appointmenttest.Driver{
		Months: []appointmenttest.Month{{Month: time.May, Year: 2024, Days: []string{"6"}}},
		FindErr: map[appointment.Control]error{appointment.ControlSelectableDay: &appointment.PageError{
			Kind: appointment.ErrUnexpectedPageState, Op: "scroll into view", Control: appointment.ControlSelectableDay,
			Err: appointment.ErrTimeout,
		}},
	}
	_, err := newEngine(t).Search(context.Background(), d)
	assert.ErrorIs(t, err, appointment.ErrUnexpectedPageState)
	assert.Equal(t, 0, d.Advances())
}

type cellStub struct{ month, year string }

func (cellStub) Click(context.Context) error          { return nil }
func (cellStub) Type(context.Context, string) error   { return nil }
func (cellStub) Text(context.Context) (string, error) { return "1", nil }
func (c cellStub) Attribute(_ context.Context, name string) (string, error) {
	if name == "data-month" {
		return c.month, nil
	}
	return c.year, nil
}

func TestCellLabel(t *testing.T) {
	ctx := context.Background()

	m, y, ok, err := cellLabel(ctx, cellStub{month: "0", year: "2024"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "January", m)
	assert.Equal(t, "2024", y)

	_, _, ok, err = cellLabel(ctx, cellStub{})
	require.NoError(t, err)
	assert.False(t, ok)

	for _, c := range []cellStub{{month: "12", year: "2024"}, {month: "x", year: "2024"}, {month: "3"}} {
		_, _, _, err := cellLabel(ctx, c)
		assert.ErrorIs(t, err, appointment.ErrUnexpectedPageState, c)
	}
}
