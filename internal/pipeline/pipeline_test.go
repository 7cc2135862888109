package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/loader"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

var ist = time.FixedZone("Asia/Calcutta", 5*3600+30*60)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 1, hour, min, 0, 0, ist)
}

func testCfg() config.Planner {
	cfg := config.Default()
	cfg.PopulationSize = 20
	cfg.Generations = 25
	return cfg
}

// twoLegDataset is end-to-end scenario: flights A->B and B->C with a
// 90 minute connection at B, one cargo A->C due 15:00.
func twoLegDataset() *loader.Dataset {
	return &loader.Dataset{
		Flights: map[string]*model.Flight{
			"AB1": {
				ID: "AB1", Origin: "A", Destination: "B",
				Departure: at(8, 0), Arrival: at(10, 0),
				WeightCapacityKg: 10000, VolumeCapacityM3: 50, CostPerKg: 10,
			},
			"BC1": {
				ID: "BC1", Origin: "B", Destination: "C",
				Departure: at(11, 30), Arrival: at(14, 0),
				WeightCapacityKg: 8000, VolumeCapacityM3: 40, CostPerKg: 12,
			},
		},
		Cargo: map[string]*model.Cargo{
			"CG1": {
				ID: "CG1", Origin: "A", Destination: "C",
				WeightKg: 2000, VolumeM3: 8, RevenueINR: 100000,
				Priority: model.PriorityHigh, MaxTransitHours: 24,
				ReadyTime: at(6, 0), DueBy: at(15, 0),
				HandlingCostPerKg: 2, SLAPenaltyPerHour: 500,
			},
		},
		Rules: []model.ConnectionRule{
			{Origin: "A", Destination: "C", ConnectionAirport: "B",
				MinConnectMinutes: 60, MaxConnectMinutes: 180, HandlingFee: 1500},
		},
	}
}

func singleDataset() *loader.Dataset {
	return &loader.Dataset{
		Flights: map[string]*model.Flight{
			"FL1": {
				ID: "FL1", Origin: "A", Destination: "B",
				Departure: at(8, 0), Arrival: at(10, 0),
				WeightCapacityKg: 10000, VolumeCapacityM3: 50, CostPerKg: 10,
			},
		},
		Cargo: map[string]*model.Cargo{
			"CG1": {
				ID: "CG1", Origin: "A", Destination: "B",
				WeightKg: 2000, VolumeM3: 8, RevenueINR: 100000,
				Priority: model.PriorityLow, MaxTransitHours: 24,
				ReadyTime: at(6, 0), DueBy: at(15, 0),
				HandlingCostPerKg: 0, SLAPenaltyPerHour: 500,
			},
		},
	}
}

func TestRunUnderCapacityBaseline(t *testing.T) {
	res, err := Run(context.Background(), singleDataset(), nil, testCfg())
	require.NoError(t, err)

	a := res.Plan.Assignments["CG1"]
	require.NotNil(t, a)
	assert.Equal(t, model.StatusDelivered, a.Status)
	assert.Greater(t, a.Margin, 0.0)
	// revenue 100000, operating 2000*10, no handling
	assert.InDelta(t, 80000.0, a.Margin, 1e-9)
}

func TestRunTwoLegItinerary(t *testing.T) {
	res, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
	require.NoError(t, err)

	a := res.Plan.Assignments["CG1"]
	assert.Equal(t, model.StatusDelivered, a.Status)
	assert.Equal(t, []string{"AB1", "BC1"}, a.Route.FlightSequence())
	assert.True(t, a.Route.OnTime)
	assert.InDelta(t, 1.5, a.Route.Legs[1].DwellHoursBefore, 1e-9)
}

func TestRunDisruptionCancel(t *testing.T) {
	events := []model.DisruptionEvent{{Kind: model.EventCancel, FlightID: "BC1"}}
	res, err := Run(context.Background(), twoLegDataset(), events, testCfg())
	require.NoError(t, err)

	a := res.Plan.Assignments["CG1"]
	assert.Equal(t, model.StatusDenied, a.Status)

	var kinds []model.AlertKind
	var statusSev model.Severity
	for _, al := range res.Alerts {
		kinds = append(kinds, al.Kind)
		if al.Kind == model.AlertStatusChange {
			statusSev = al.Severity
		}
	}
	assert.Contains(t, kinds, model.AlertDisruptionApplied)
	assert.Contains(t, kinds, model.AlertStatusChange)
	assert.Equal(t, model.SeverityCritical, statusSev)
	assert.NotContains(t, kinds, model.AlertReroute)
}

func TestRunDisruptionDelayCascades(t *testing.T) {
	// +120 minutes on AB1 lands at 12:00, after BC1's 11:30 departure.
	events := []model.DisruptionEvent{{Kind: model.EventDelay, FlightID: "AB1", DelayMinutes: 120}}
	res, err := Run(context.Background(), twoLegDataset(), events, testCfg())
	require.NoError(t, err)

	assert.Equal(t, model.StatusDenied, res.Plan.Assignments["CG1"].Status)

	var kinds []model.AlertKind
	for _, al := range res.Alerts {
		kinds = append(kinds, al.Kind)
	}
	assert.Contains(t, kinds, model.AlertStatusChange)
	assert.NotContains(t, kinds, model.AlertReroute)
}

func TestRunNullEventLaw(t *testing.T) {
	baseline, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
	require.NoError(t, err)
	empty, err := Run(context.Background(), twoLegDataset(), []model.DisruptionEvent{}, testCfg())
	require.NoError(t, err)

	assert.Equal(t, baseline.Plan.TotalMargin, empty.Plan.TotalMargin)
	for id, a := range baseline.Plan.Assignments {
		assert.Equal(t, a.Status, empty.Plan.Assignments[id].Status)
		assert.Equal(t, a.Margin, empty.Plan.Assignments[id].Margin)
	}
	for _, al := range empty.Alerts {
		assert.NotEqual(t, model.AlertDisruptionApplied, al.Kind)
	}
}

func TestRunMonotoneCapacity(t *testing.T) {
	// Capacity for one of two cargo; a swap event doubling it must not
	// reduce deliveries.
	ds := singleDataset()
	ds.Flights["FL1"].WeightCapacityKg = 2500
	ds.Cargo["CG2"] = &model.Cargo{
		ID: "CG2", Origin: "A", Destination: "B",
		WeightKg: 2000, VolumeM3: 8, RevenueINR: 90000,
		Priority: model.PriorityLow, MaxTransitHours: 24,
		ReadyTime: at(6, 0), DueBy: at(15, 0),
		HandlingCostPerKg: 0, SLAPenaltyPerHour: 500,
	}
	cfg := testCfg()
	cfg.Generations = 60

	baseline, err := Run(context.Background(), ds, nil, cfg)
	require.NoError(t, err)

	bigger := 5000.0
	events := []model.DisruptionEvent{{Kind: model.EventSwap, FlightID: "FL1", NewWeightCapacityKg: &bigger}}
	upgraded, err := Run(context.Background(), ds, events, cfg)
	require.NoError(t, err)

	count := func(r *Result) int {
		n := 0
		for _, a := range r.Plan.Assignments {
			if a.Status == model.StatusDelivered {
				n++
			}
		}
		return n
	}
	assert.GreaterOrEqual(t, count(upgraded), count(baseline))
	assert.GreaterOrEqual(t, upgraded.Plan.TotalMargin, baseline.Plan.TotalMargin)
}

func TestWriteOutputsByteIdenticalAcrossRuns(t *testing.T) {
	run := func(dir string) {
		res, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
		require.NoError(t, err)
		require.NoError(t, WriteOutputs(dir, res))
	}
	dirA, dirB := t.TempDir(), t.TempDir()
	run(dirA)
	run(dirB)

	for _, name := range []string{"plan_routes.csv", "flight_loads.csv", "alerts.csv", "plan_summary.json"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), name)
	}
}

func TestWriteOutputsArtifacts(t *testing.T) {
	res, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteOutputs(dir, res))

	routes, err := os.ReadFile(filepath.Join(dir, "plan_routes.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(routes), "cargo_id,status,reason,flights")
	assert.Contains(t, string(routes), "AB1 BC1")

	loads, err := os.ReadFile(filepath.Join(dir, "flight_loads.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(loads), "weight_utilization_pct")
}

func TestBuildSummaryTotals(t *testing.T) {
	res, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
	require.NoError(t, err)

	s := BuildSummary(res)
	assert.Equal(t, 1, s.Delivered)
	assert.Equal(t, 0, s.Rolled)
	assert.Equal(t, 0, s.Denied)
	assert.Equal(t, 1, s.CargoCount)
	assert.Equal(t, 2, s.FlightCount)

	var sum float64
	for _, a := range res.Plan.Assignments {
		sum += a.Margin
	}
	assert.InDelta(t, sum, s.TotalMargin, 0.01)
}

func TestBuildPayloadMirrorsArtifacts(t *testing.T) {
	res, err := Run(context.Background(), twoLegDataset(), nil, testCfg())
	require.NoError(t, err)

	p := BuildPayload(res)
	require.Len(t, p.Cargo, 1)
	assert.Equal(t, "CG1", p.Cargo[0].CargoID)
	assert.Equal(t, "delivered", p.Cargo[0].Status)
	assert.Equal(t, "AB1 BC1", p.Cargo[0].Flights)
	require.Len(t, p.Flights, 2)
	assert.NotNil(t, p.Alerts)
}
