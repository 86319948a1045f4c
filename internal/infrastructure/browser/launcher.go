package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/wait"
)

// Viewport of every opened page.
const (
	ViewportWidth  = 2078
	ViewportHeight = 1479
)

// Options configure the browser sessions opened by a Launcher.
type Options struct {
	Headless          bool
	ElementTimeout    time.Duration
	NavigationTimeout time.Duration
	PollInterval      time.Duration
	// ExecutablePath overrides the bundled chromium when set.
	ExecutablePath string
}

// Launcher starts the playwright driver once and opens a fresh browser per session.
type Launcher struct {
	opts   Options
	logger logrus.FieldLogger

	mu sync.Mutex
	pw *pw.Playwright
}

func NewLauncher(opts Options, logger logrus.FieldLogger) *Launcher {
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = 6 * time.Second
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 10 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = wait.DefaultInterval
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Launcher{opts: opts, logger: logger}
}

// Install downloads the playwright driver and chromium.
func Install() error {
	return pw.Install(&pw.RunOptions{Browsers: []string{"chromium"}, Verbose: false})
}

func (l *Launcher) start() (*pw.Playwright, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pw != nil {
		return l.pw, nil
	}
	p, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	l.pw = p
	return p, nil
}

// Open launches chromium with a single page. It satisfies usecases.SessionOpener.
func (l *Launcher) Open(ctx context.Context) (appointment.PageDriver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := l.start()
	if err != nil {
		return nil, err
	}
	launch := pw.BrowserTypeLaunchOptions{Headless: pw.Bool(l.opts.Headless)}
	if l.opts.ExecutablePath != "" {
		launch.ExecutablePath = pw.String(l.opts.ExecutablePath)
	}
	browser, err := p.Chromium.Launch(launch)
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	page, err := browser.NewPage(pw.BrowserNewPageOptions{
		Viewport: &pw.Size{Width: ViewportWidth, Height: ViewportHeight},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultTimeout(ms(l.opts.ElementTimeout))
	page.SetDefaultNavigationTimeout(ms(l.opts.NavigationTimeout))

	l.logger.WithField("headless", l.opts.Headless).Debug("browser session opened")
	return &Driver{
		browser:        browser,
		page:           page,
		elementTimeout: l.opts.ElementTimeout,
		pollInterval:   l.opts.PollInterval,
		logger:         l.logger,
	}, nil
}

// Stop shuts down the playwright driver. Sessions must be closed first.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	return err
}
