package browser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

func TestSelectorsCoverEveryControl(t *testing.T) {
	controls := []appointment.Control{
		appointment.ControlEmail,
		appointment.ControlPassword,
		appointment.ControlPolicyAgree,
		appointment.ControlSignIn,
		appointment.ControlFacility,
		appointment.ControlDateInput,
		appointment.ControlSelectableDay,
		appointment.ControlNextMonth,
		appointment.ControlTime,
		appointment.ControlReschedule,
		appointment.ControlConfirm,
	}
	for _, c := range controls {
		alts, ok := selectors[c]
		require.Truef(t, ok, "missing selectors for %s", c)
		assert.NotEmpty(t, alts, c)
		for _, s := range alts {
			assert.NotEmpty(t, s, c)
		}
	}
	assert.Len(t, selectors, len(controls))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	timeout := fmt.Errorf("locator.waitFor: %w", pw.ErrTimeout)
	err := classify(timeout)
	assert.ErrorIs(t, err, appointment.ErrTimeout)
	assert.ErrorIs(t, err, pw.ErrTimeout)

	other := errors.New("target closed")
	assert.Equal(t, other, classify(other))
	assert.NotErrorIs(t, classify(other), appointment.ErrTimeout)
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, []string{"March", "2025"}, nonEmpty([]string{" ", "March", "", " 2025\n"}))
	assert.Nil(t, nonEmpty(nil))
}

func TestNewLauncherDefaults(t *testing.T) {
	l := NewLauncher(Options{}, nil)
	assert.Equal(t, 6*time.Second, l.opts.ElementTimeout)
	assert.Equal(t, 10*time.Second, l.opts.NavigationTimeout)
	assert.Equal(t, 2*time.Second, l.opts.PollInterval)
	assert.NoError(t, l.Stop())
}

func TestMillis(t *testing.T) {
	assert.Equal(t, float64(100), ms(100*time.Millisecond))
	assert.Equal(t, float64(6000), ms(6*time.Second))
}

func TestSelectableDayStaysInFirstMonth(t *testing.T) {
	for _, sel := range selectors[appointment.ControlSelectableDay] {
		scoped := strings.Contains(sel, ".ui-datepicker-group-first") || strings.HasPrefix(sel, "#ui-datepicker-div > table")
		assert.Truef(t, scoped, "selector %q can match a later rendered month", sel)
	}
}

func TestScrollErrorIsNotAbsence(t *testing.T) {
	cause := fmt.Errorf("%w: element not visible", appointment.ErrTimeout)
	err := scrollError(appointment.ControlSelectableDay, cause)

	assert.ErrorIs(t, err, appointment.ErrUnexpectedPageState)
	assert.NotErrorIs(t, err, appointment.ErrElementNotFound)
	assert.Equal(t, "unexpected_page_state", appointment.FailureKind(err))
}
