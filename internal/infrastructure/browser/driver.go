// Package browser drives the appointment portal with playwright.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/wait"
)

// Driver implements appointment.PageDriver over one playwright page.
type Driver struct {
	browser pw.Browser
	page    pw.Page

	elementTimeout time.Duration
	pollInterval   time.Duration
	logger         logrus.FieldLogger
}

var _ appointment.PageDriver = (*Driver)(nil)

func (d *Driver) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.page.Goto(url, pw.PageGotoOptions{WaitUntil: pw.WaitUntilStateDomcontentloaded}); err != nil {
		return &appointment.PageError{Kind: appointment.ErrNavigation, Op: "goto " + url, Err: classify(err)}
	}
	return nil
}

func (d *Driver) Find(ctx context.Context, c appointment.Control, timeout time.Duration) (appointment.Element, error) {
	loc, err := d.locate(ctx, c, timeout)
	if err != nil {
		return nil, err
	}
	return &element{loc: loc, control: c, timeout: d.elementTimeout}, nil
}

// locate tries each selector alternative, bounded by timeout, and returns the
// first visible match scrolled into view.
func (d *Driver) locate(ctx context.Context, c appointment.Control, timeout time.Duration) (pw.Locator, error) {
	alts, ok := selectors[c]
	if !ok {
		return nil, fmt.Errorf("no selectors for control %q", c)
	}
	var errs []error
	for _, sel := range alts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loc := d.page.Locator(sel).First()
		err := loc.WaitFor(pw.LocatorWaitForOptions{
			State:   pw.WaitForSelectorStateVisible,
			Timeout: pw.Float(ms(timeout)),
		})
		if err != nil {
			d.logger.WithFields(logrus.Fields{"control": string(c), "selector": sel}).Debug("selector not found")
			errs = append(errs, fmt.Errorf("%s: %w", sel, classify(err)))
			continue
		}
		if err := d.scrollIntoView(ctx, loc); err != nil {
			return nil, scrollError(c, err)
		}
		return loc, nil
	}
	return nil, &appointment.PageError{Kind: appointment.ErrElementNotFound, Op: "find", Control: c, Err: errors.Join(errs...)}
}

// scrollError reports a control that matched but could not be brought into
// view. It is not an absent control, so a month scan must not skip past it.
func scrollError(c appointment.Control, err error) error {
	return &appointment.PageError{Kind: appointment.ErrUnexpectedPageState, Op: "scroll into view", Control: c, Err: err}
}

func (d *Driver) scrollIntoView(ctx context.Context, loc pw.Locator) error {
	if err := loc.ScrollIntoViewIfNeeded(pw.LocatorScrollIntoViewIfNeededOptions{Timeout: pw.Float(ms(d.elementTimeout))}); err != nil {
		return classify(err)
	}
	return d.poller(d.elementTimeout).Until(ctx, func(context.Context) (bool, error) {
		return loc.IsVisible()
	})
}

func (d *Driver) SelectOption(ctx context.Context, c appointment.Control, value string) error {
	loc, err := d.locate(ctx, c, d.elementTimeout)
	if err != nil {
		return err
	}
	if _, err := loc.SelectOption(pw.SelectOptionValues{Values: &[]string{value}}); err != nil {
		return fmt.Errorf("select %s=%s: %w", c, value, classify(err))
	}
	return nil
}

func (d *Driver) ReadMonthLabel(ctx context.Context) (string, string, error) {
	var texts []string
	for _, sel := range monthLabelSelectors {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		all, err := d.page.Locator(sel).AllTextContents()
		if err != nil {
			return "", "", fmt.Errorf("month label: %w", classify(err))
		}
		texts = nonEmpty(all)
		if len(texts) >= 2 {
			return texts[0], texts[1], nil
		}
	}
	return "", "", &appointment.PageError{Kind: appointment.ErrUnexpectedPageState, Op: "read month label", Err: fmt.Errorf("header texts %q", texts)}
}

// SelectFirstAvailableTime waits for the time slots of the clicked day to load
// and picks the first one after the blank placeholder.
func (d *Driver) SelectFirstAvailableTime(ctx context.Context) error {
	loc, err := d.locate(ctx, appointment.ControlTime, d.elementTimeout)
	if err != nil {
		return err
	}
	err = d.poller(d.elementTimeout).Until(ctx, func(context.Context) (bool, error) {
		n, err := loc.Locator("option").Count()
		return n > 1, err
	})
	if err != nil {
		return fmt.Errorf("time slots: %w", err)
	}
	if _, err := loc.SelectOption(pw.SelectOptionValues{Indexes: &[]int{1}}); err != nil {
		return fmt.Errorf("select time: %w", classify(err))
	}
	return nil
}

func (d *Driver) Close() error {
	var errs []error
	if d.page != nil {
		if err := d.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) poller(timeout time.Duration) wait.Poller {
	return wait.Poller{Timeout: timeout, Interval: d.pollInterval, Clock: wait.RealClock}
}

type element struct {
	loc     pw.Locator
	control appointment.Control
	timeout time.Duration
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.loc.Click(pw.LocatorClickOptions{Timeout: pw.Float(ms(e.timeout))}); err != nil {
		return fmt.Errorf("click %s: %w", e.control, classify(err))
	}
	return nil
}

func (e *element) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	typ, err := e.loc.Evaluate("el => el.type", nil)
	if err != nil {
		return fmt.Errorf("type %s: %w", e.control, classify(err))
	}
	if s, _ := typ.(string); textInputTypes[s] {
		err = e.loc.PressSequentially(text)
	} else {
		_, err = e.loc.Evaluate(`(el, value) => {
			el.value = value;
			el.dispatchEvent(new Event('input', {bubbles: true}));
			el.dispatchEvent(new Event('change', {bubbles: true}));
		}`, text)
	}
	if err != nil {
		return fmt.Errorf("type %s: %w", e.control, classify(err))
	}
	return nil
}

func (e *element) Text(context.Context) (string, error) {
	s, err := e.loc.TextContent()
	if err != nil {
		return "", fmt.Errorf("text %s: %w", e.control, classify(err))
	}
	return strings.TrimSpace(s), nil
}

func (e *element) Attribute(_ context.Context, name string) (string, error) {
	s, err := e.loc.GetAttribute(name)
	if err != nil {
		return "", fmt.Errorf("attribute %s.%s: %w", e.control, name, classify(err))
	}
	return s, nil
}

// classify tags playwright timeouts with appointment.ErrTimeout.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pw.ErrTimeout) {
		return fmt.Errorf("%w: %w", appointment.ErrTimeout, err)
	}
	return err
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func ms(d time.Duration) float64 { return float64(d / time.Millisecond) }
