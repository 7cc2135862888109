package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres stores plan runs in a single table, summary and payload as
// jsonb columns.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS plan_runs (
    id          TEXT PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL,
    seed        BIGINT NOT NULL,
    event_count INT NOT NULL,
    duration_ms BIGINT NOT NULL,
    summary     JSONB NOT NULL,
    payload     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS plan_runs_created_at_idx ON plan_runs (created_at DESC);
`)
	if err != nil {
		return fmt.Errorf("migrate plan_runs: %w", err)
	}
	return nil
}

func (p *Postgres) SavePlanRun(ctx context.Context, run *PlanRun) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(run.Payload)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO plan_runs (id, created_at, seed, event_count, duration_ms, summary, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID, run.CreatedAt, run.Seed, run.EventCount, run.DurationMs, summary, payload)
	if err != nil {
		return fmt.Errorf("insert plan run: %w", err)
	}
	return nil
}

func (p *Postgres) GetPlanRun(ctx context.Context, id string) (*PlanRun, error) {
	row := p.db.QueryRowContext(ctx, `
SELECT id, created_at, seed, event_count, duration_ms, summary, payload
FROM plan_runs WHERE id = $1`, id)

	var run PlanRun
	var summary, payload []byte
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Seed, &run.EventCount, &run.DurationMs, &summary, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan run: %w", err)
	}
	if err := json.Unmarshal(summary, &run.Summary); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &run.Payload); err != nil {
		return nil, err
	}
	run.HasDisrupts = run.EventCount > 0
	return &run, nil
}

func (p *Postgres) ListPlanRuns(ctx context.Context, limit int) ([]*PlanRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, created_at, seed, event_count, duration_ms, summary
FROM plan_runs ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	defer rows.Close()

	var out []*PlanRun
	for rows.Next() {
		var run PlanRun
		var summary []byte
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Seed, &run.EventCount, &run.DurationMs, &summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(summary, &run.Summary); err != nil {
			return nil, err
		}
		run.HasDisrupts = run.EventCount > 0
		out = append(out, &run)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }
