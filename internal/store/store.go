// Package store persists completed plan runs. The API server uses the
// in-memory implementation unless DATABASE_URL selects Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/pipeline"
)

// ErrNotFound is returned when a plan run does not exist.
var ErrNotFound = errors.New("plan run not found")

// PlanRun is one completed optimization run.
type PlanRun struct {
	ID          string           `json:"run_id"`
	CreatedAt   time.Time        `json:"created_at"`
	Seed        int64            `json:"seed"`
	EventCount  int              `json:"event_count"`
	DurationMs  int64            `json:"duration_ms"`
	Summary     pipeline.Summary `json:"summary"`
	Payload     pipeline.Payload `json:"-"`
	HasDisrupts bool             `json:"has_disruptions"`
}

// Store is the plan-run history. Implementations must be safe for
// concurrent use.
type Store interface {
	SavePlanRun(ctx context.Context, run *PlanRun) error
	GetPlanRun(ctx context.Context, id string) (*PlanRun, error)
	// ListPlanRuns returns up to limit runs, newest first, without
	// payloads.
	ListPlanRuns(ctx context.Context, limit int) ([]*PlanRun, error)
	Ping(ctx context.Context) error
	Close() error
}
