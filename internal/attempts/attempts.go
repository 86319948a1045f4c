// Package attempts stores the history of reschedule attempts.
package attempts

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/visa-rescheduler/internal/db"
	"github.com/example/visa-rescheduler/internal/domain/appointment"
)

type Attempt struct {
	ID            int64
	RunID         uuid.UUID
	Attempt       int
	AppointmentID string
	ConsularID    string
	ReferenceDate time.Time
	Outcome       string
	FailureKind   string
	Reason        string
	FoundDate     *time.Time
	StartedAt     time.Time
	FinishedAt    time.Time
	CreatedAt     time.Time
}

func (a Attempt) Duration() time.Duration { return a.FinishedAt.Sub(a.StartedAt) }

type Repo struct{ db db.Conn }

func NewRepo(d db.Conn) *Repo { return &Repo{db: d} }

const maxReasonLen = 2000

// Record stores one outcome. It satisfies scheduler.Recorder.
func (r *Repo) Record(ctx context.Context, runID uuid.UUID, n int, req appointment.Request, out appointment.Outcome) error {
	var found *time.Time
	if out.Found != nil {
		d := out.Found.Date
		found = &d
	}
	reason := truncate(out.Reason, maxReasonLen)
	_, err := r.db.Exec(ctx, `
INSERT INTO attempts(run_id,attempt,appointment_id,consular_id,reference_date,outcome,failure_kind,reason,found_date,started_at,finished_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		runID.String(), n, req.Target.AppointmentID, req.Target.ConsularID, req.Reference,
		out.Kind.String(), out.FailureKind(), reason, found, out.StartedAt, out.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune; TEXT columns
// reject invalid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ListRecent returns the newest attempts first.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Attempt, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
SELECT id,run_id,attempt,appointment_id,consular_id,reference_date,outcome,failure_kind,reason,found_date,started_at,finished_at,created_at
FROM attempts
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var runID string
		if err := rows.Scan(
			&a.ID, &runID, &a.Attempt, &a.AppointmentID, &a.ConsularID, &a.ReferenceDate, &a.Outcome, &a.FailureKind,
			&a.Reason, &a.FoundDate, &a.StartedAt, &a.FinishedAt, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		if a.RunID, err = uuid.Parse(runID); err != nil {
			return nil, fmt.Errorf("attempt %d: run id: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Summary counts attempts by outcome.
func (r *Repo) Summary(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT outcome, count(*) FROM attempts GROUP BY outcome`)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var outcome string
		var n int64
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		out[outcome] = n
	}
	return out, rows.Err()
}
