// Package pipeline runs the whole planning flow: load, enumerate,
// optimize, optionally disrupt and re-optimize, then serialize.
package pipeline

import (
	"context"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/disrupt"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/ga"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/loader"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/route"
)

// Result is one complete plan run.
type Result struct {
	Plan        *ga.Plan
	Flights     map[string]*model.Flight
	Cargo       map[string]*model.Cargo
	Alerts      []model.Alert
	Seed        int64
	Generations int
	EventCount  int
	Duration    time.Duration
}

// Run plans the dataset. With events present the baseline plan is computed
// first, the mutated world is re-enumerated and re-optimized under a seed
// derived from the baseline seed, and the returned plan is the disrupted
// one with diff alerts appended. An empty event list never touches the
// disruption path, so it reproduces the baseline exactly.
func Run(ctx context.Context, ds *loader.Dataset, events []model.DisruptionEvent, cfg config.Planner) (*Result, error) {
	start := time.Now()

	catalog := route.BuildCatalog(ds.Cargo, ds.Flights, ds.Rules, cfg.MaxLegs, cfg.DenialFactor)
	baseline, err := ga.Optimize(ctx, catalog, ds.Flights, cfg, cfg.Seed)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Plan:        baseline.Plan,
		Flights:     ds.Flights,
		Cargo:       ds.Cargo,
		Alerts:      baseline.Plan.Alerts,
		Seed:        cfg.Seed,
		Generations: baseline.Generations,
	}

	if len(events) > 0 {
		mutated, eventAlerts := disrupt.ApplyEvents(ds.Flights, events)
		newCatalog := route.BuildCatalog(ds.Cargo, mutated, ds.Rules, cfg.MaxLegs, cfg.DenialFactor)
		reopt, err := ga.Optimize(ctx, newCatalog, mutated, cfg, disrupt.DeriveSeed(cfg.Seed))
		if err != nil {
			return nil, err
		}
		diff := disrupt.DiffPlans(baseline.Plan, reopt.Plan, cfg.DisruptionMarginThreshold)

		res.Plan = reopt.Plan
		res.Flights = mutated
		res.Generations = reopt.Generations
		res.EventCount = len(events)

		alerts := make([]model.Alert, 0, len(eventAlerts)+len(reopt.Plan.Alerts)+len(diff))
		alerts = append(alerts, eventAlerts...)
		alerts = append(alerts, reopt.Plan.Alerts...)
		alerts = append(alerts, diff...)
		res.Alerts = alerts
	}

	res.Duration = time.Since(start)
	return res, nil
}
