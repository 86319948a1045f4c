// Package web serves the optional read-only status listener.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/example/visa-rescheduler/internal/application/scheduler"
	"github.com/example/visa-rescheduler/internal/attempts"
)

type HistoryLister interface {
	ListRecent(ctx context.Context, limit int) ([]attempts.Attempt, error)
}

type StatusSource interface {
	State() scheduler.State
	AttemptCount() int64
}

type Server struct {
	Status   StatusSource
	History  HistoryLister // nil when no database is configured
	Gatherer prometheus.Gatherer
	Logger   logrus.FieldLogger

	StartedAt time.Time
}

type statusResponse struct {
	State     string    `json:"state"`
	Attempts  int64     `json:"attempts"`
	StartedAt time.Time `json:"started_at"`
}

type attemptResponse struct {
	RunID       string  `json:"run_id"`
	Attempt     int     `json:"attempt"`
	Outcome     string  `json:"outcome"`
	FailureKind string  `json:"failure_kind,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	FoundDate   string  `json:"found_date,omitempty"`
	StartedAt   string  `json:"started_at"`
	DurationSec float64 `json:"duration_seconds"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/status", s.handleStatus)
	r.Get("/attempts", s.handleAttempts)

	g := s.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{State: scheduler.StateIdle.String(), StartedAt: s.StartedAt}
	if s.Status != nil {
		resp.State = s.Status.State().String()
		resp.Attempts = s.Status.AttemptCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		http.Error(w, "attempt history requires DATABASE_URL", http.StatusNotFound)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "limit must be 1..500", http.StatusBadRequest)
			return
		}
		limit = n
	}
	as, err := s.History.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger().WithError(err).Error("list attempts")
		http.Error(w, "list attempts failed", http.StatusInternalServerError)
		return
	}
	out := make([]attemptResponse, 0, len(as))
	for _, a := range as {
		ar := attemptResponse{
			RunID:       a.RunID.String(),
			Attempt:     a.Attempt,
			Outcome:     a.Outcome,
			FailureKind: a.FailureKind,
			Reason:      a.Reason,
			StartedAt:   a.StartedAt.UTC().Format(time.RFC3339),
			DurationSec: a.Duration().Seconds(),
		}
		if a.FoundDate != nil {
			ar.FoundDate = a.FoundDate.Format("2006-01-02")
		}
		out = append(out, ar)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// Start serves h on addr until ctx is done.
func Start(ctx context.Context, addr string, h http.Handler, logger logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.WithField("addr", addr).Info("status listener started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
