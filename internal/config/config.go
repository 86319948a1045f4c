package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/visa-rescheduler/internal/crypto"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

type Config struct {
	Email          string
	Password       string
	PasswordSealed string
	CredEncKey     []byte

	AppointmentID string
	ConsularID    string
	Region        string
	PortalHost    string
	ReferenceDate time.Time

	RetryDelay        time.Duration
	MaxMonthAdvances  int
	Headless          bool
	ElementTimeout    time.Duration
	NavigationTimeout time.Duration
	ProbeTimeout      time.Duration
	PollInterval      time.Duration

	LogLevel  string
	LogFormat string

	// optional
	DatabaseURL string
	StatusAddr  string
}

// Load reads an optional .env file (existing environment wins) and then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		Email:          strings.TrimSpace(os.Getenv("VISA_EMAIL")),
		Password:       os.Getenv("VISA_PASSWORD"),
		PasswordSealed: strings.TrimSpace(os.Getenv("VISA_PASSWORD_SEALED")),
		AppointmentID:  strings.TrimSpace(os.Getenv("VISA_APPOINTMENT_ID")),
		ConsularID:     getenv("VISA_CONSULAR_ID", "95"),
		Region:         getenv("VISA_REGION", "ca"),
		PortalHost:     getenv("VISA_PORTAL_HOST", appointment.DefaultPortalHost),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StatusAddr:     strings.TrimSpace(os.Getenv("STATUS_ADDR")),
	}

	if v := strings.TrimSpace(os.Getenv("VISA_REFERENCE_DATE")); v != "" {
		d, err := appointment.ParseReferenceDate(v)
		if err != nil {
			return Config{}, fmt.Errorf("VISA_REFERENCE_DATE: %w", err)
		}
		cfg.ReferenceDate = d
	}

	var err error
	if cfg.RetryDelay, err = millis("VISA_RETRY_DELAY_MS", 3*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ElementTimeout, err = millis("VISA_ELEMENT_TIMEOUT_MS", 6*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NavigationTimeout, err = millis("VISA_NAVIGATION_TIMEOUT_MS", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = millis("VISA_PROBE_TIMEOUT_MS", 100*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = millis("VISA_POLL_INTERVAL_MS", 2*time.Second); err != nil {
		return Config{}, err
	}

	cfg.MaxMonthAdvances, err = strconv.Atoi(getenv("VISA_MAX_MONTH_ADVANCES", "12"))
	if err != nil || cfg.MaxMonthAdvances < 1 {
		return Config{}, fmt.Errorf("invalid VISA_MAX_MONTH_ADVANCES")
	}
	cfg.Headless, err = strconv.ParseBool(getenv("VISA_HEADLESS", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid VISA_HEADLESS")
	}

	if k := strings.TrimSpace(os.Getenv("CRED_ENC_KEY")); k != "" {
		cfg.CredEncKey, err = decodeB64(k)
		if err != nil {
			return Config{}, fmt.Errorf("CRED_ENC_KEY: %w", err)
		}
	}
	return cfg, nil
}

// ResolvePassword returns the plaintext password, opening VISA_PASSWORD_SEALED
// with CRED_ENC_KEY when no plaintext password is set.
func (c Config) ResolvePassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if c.PasswordSealed == "" {
		return "", fmt.Errorf("VISA_PASSWORD or VISA_PASSWORD_SEALED is required")
	}
	if len(c.CredEncKey) == 0 {
		return "", fmt.Errorf("CRED_ENC_KEY is required to open VISA_PASSWORD_SEALED")
	}
	s, err := crypto.New(c.CredEncKey)
	if err != nil {
		return "", fmt.Errorf("CRED_ENC_KEY: %w", err)
	}
	pw, err := s.OpenString(c.PasswordSealed)
	if err != nil {
		return "", fmt.Errorf("VISA_PASSWORD_SEALED: %w", err)
	}
	return pw, nil
}

// Request builds the attempt input. It fails on any missing required option.
func (c Config) Request() (appointment.Request, error) {
	pw, err := c.ResolvePassword()
	if err != nil {
		return appointment.Request{}, err
	}
	req := appointment.Request{
		Reference:   c.ReferenceDate,
		Credentials: appointment.Credentials{Email: c.Email, Password: pw},
		Target: appointment.Target{
			AppointmentID: c.AppointmentID,
			ConsularID:    c.ConsularID,
			Region:        c.Region,
		},
	}
	if err := req.Validate(); err != nil {
		return appointment.Request{}, fmt.Errorf("config: %w", err)
	}
	return req, nil
}

func (c Config) Portal() appointment.Portal {
	return appointment.Portal{Host: c.PortalHost}
}

func millis(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 1 {
		return 0, fmt.Errorf("invalid %s", k)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func decodeB64(s string) ([]byte, error) {
	b, err := os.ReadFile(s)
	if err == nil {
		// allow pointing to file path for k8s secret mounts
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if dec, err := base64.StdEncoding.DecodeString(s); err == nil {
		return dec, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
