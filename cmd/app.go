package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/example/visa-rescheduler/internal/application/usecases"
	"github.com/example/visa-rescheduler/internal/config"
	"github.com/example/visa-rescheduler/internal/db"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
	"github.com/example/visa-rescheduler/internal/infrastructure/browser"
	"github.com/example/visa-rescheduler/internal/logging"
	"github.com/example/visa-rescheduler/internal/migrate"
	"github.com/example/visa-rescheduler/internal/search"
)

type globalOptions struct {
	envFile   string
	logLevel  string
	logFormat string
}

// load reads configuration and builds the process logger.
func (g *globalOptions) load(cmd *cobra.Command) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(g.envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	return cfg, logging.NewWithOutput(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()), nil
}

// targetFlags override the appointment options taken from the environment.
type targetFlags struct {
	email         string
	appointmentID string
	consularID    string
	region        string
	referenceDate string
	retryDelay    time.Duration
	headless      bool
}

func (t *targetFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&t.email, "email", "", "portal account email (VISA_EMAIL)")
	f.StringVar(&t.appointmentID, "appointment-id", "", "appointment to reschedule (VISA_APPOINTMENT_ID)")
	f.StringVar(&t.consularID, "consular-id", "", "consulate facility id (VISA_CONSULAR_ID)")
	f.StringVar(&t.region, "region", "", "portal region code (VISA_REGION)")
	f.StringVar(&t.referenceDate, "reference-date", "", "current appointment date YYYY-MM-DD (VISA_REFERENCE_DATE)")
	f.DurationVar(&t.retryDelay, "retry-delay", 0, "delay between attempts (VISA_RETRY_DELAY_MS)")
	f.BoolVar(&t.headless, "headless", true, "run chromium headless (VISA_HEADLESS)")
}

func (t *targetFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("email") {
		cfg.Email = t.email
	}
	if f.Changed("appointment-id") {
		cfg.AppointmentID = t.appointmentID
	}
	if f.Changed("consular-id") {
		cfg.ConsularID = t.consularID
	}
	if f.Changed("region") {
		cfg.Region = t.region
	}
	if f.Changed("reference-date") {
		d, err := appointment.ParseReferenceDate(t.referenceDate)
		if err != nil {
			return fmt.Errorf("invalid --reference-date: %w", err)
		}
		cfg.ReferenceDate = d
	}
	if f.Changed("retry-delay") {
		if t.retryDelay <= 0 {
			return fmt.Errorf("--retry-delay must be > 0")
		}
		cfg.RetryDelay = t.retryDelay
	}
	if f.Changed("headless") {
		cfg.Headless = t.headless
	}
	return nil
}

func newLauncher(cfg config.Config, log logrus.FieldLogger) *browser.Launcher {
	return browser.NewLauncher(browser.Options{
		Headless:          cfg.Headless,
		ElementTimeout:    cfg.ElementTimeout,
		NavigationTimeout: cfg.NavigationTimeout,
		PollInterval:      cfg.PollInterval,
	}, log)
}

func newRescheduler(cfg config.Config, sessions usecases.SessionOpener, log logrus.FieldLogger) usecases.RescheduleEarlier {
	engine := search.New(log)
	engine.Probe = cfg.ProbeTimeout
	engine.MaxAdvances = cfg.MaxMonthAdvances
	engine.ElementTimeout = cfg.ElementTimeout
	return usecases.RescheduleEarlier{
		Sessions:       sessions,
		Search:         engine,
		Portal:         cfg.Portal(),
		ElementTimeout: cfg.ElementTimeout,
		Logger:         log,
	}
}

// openDB connects and optionally applies migrations. Callers close the DB.
func openDB(ctx context.Context, cfg config.Config, migrateUp bool) (*db.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}
