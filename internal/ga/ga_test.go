package ga

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/route"
)

var ist = time.FixedZone("Asia/Calcutta", 5*3600+30*60)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 1, hour, min, 0, 0, ist)
}

func flight(id, origin, dest string, dep, arr time.Time, weightCap float64) *model.Flight {
	return &model.Flight{
		ID: id, Origin: origin, Destination: dest,
		Departure: dep, Arrival: arr,
		WeightCapacityKg: weightCap, VolumeCapacityM3: 100, CostPerKg: 10,
	}
}

func cargoOf(id string, priority model.Priority, weight float64) *model.Cargo {
	return &model.Cargo{
		ID: id, Origin: "A", Destination: "B",
		WeightKg: weight, VolumeM3: 1, RevenueINR: 100000,
		Priority: priority, MaxTransitHours: 24,
		ReadyTime: at(6, 0), DueBy: at(20, 0),
		HandlingCostPerKg: 2, SLAPenaltyPerHour: 500,
	}
}

func smallCfg(seed int64) config.Planner {
	cfg := config.Default()
	cfg.PopulationSize = 20
	cfg.Generations = 30
	cfg.Seed = seed
	return cfg
}

func singleFlightWorld(weightCap float64, cargo ...*model.Cargo) (*route.Catalog, map[string]*model.Flight) {
	flights := map[string]*model.Flight{
		"FL1": flight("FL1", "A", "B", at(8, 0), at(10, 0), weightCap),
	}
	cm := make(map[string]*model.Cargo, len(cargo))
	for _, c := range cargo {
		cm[c.ID] = c
	}
	return route.BuildCatalog(cm, flights, nil, 4, 0.25), flights
}

func TestSimulateSingleCargoDelivered(t *testing.T) {
	cat, flights := singleFlightWorld(10000, cargoOf("CG1", model.PriorityLow, 2000))
	plan := Simulate(Individual{0}, cat, flights, config.Default().Knapsack)

	a := plan.Assignments["CG1"]
	require.NotNil(t, a)
	assert.Equal(t, model.StatusDelivered, a.Status)
	assert.Greater(t, a.Margin, 0.0)
	assert.InDelta(t, plan.TotalMargin, a.Margin, 1e-9)
	assert.Empty(t, plan.Alerts)

	require.Len(t, plan.FlightLoads, 1)
	load := plan.FlightLoads[0]
	assert.Equal(t, []string{"CG1"}, load.CargoIDs)
	assert.InDelta(t, 20.0, load.WeightUtilization(), 1e-9)
}

func TestSimulateOversubscriptionPriorityGuarantee(t *testing.T) {
	// 1000kg flight, three 600kg cargo: high and medium board past
	// capacity with a breach alert, low rolls with the flight named.
	cat, flights := singleFlightWorld(1000,
		cargoOf("H1", model.PriorityHigh, 600),
		cargoOf("M1", model.PriorityMedium, 600),
		cargoOf("L1", model.PriorityLow, 600),
	)
	plan := Simulate(Individual{0, 0, 0}, cat, flights, config.Default().Knapsack)

	assert.Equal(t, model.StatusDelivered, plan.Assignments["H1"].Status)
	assert.Equal(t, model.StatusDelivered, plan.Assignments["M1"].Status)
	assert.Equal(t, model.StatusRolled, plan.Assignments["L1"].Status)
	assert.Contains(t, plan.Assignments["L1"].Reason, "FL1")

	var kinds []model.AlertKind
	for _, a := range plan.Alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, model.AlertCapacityBreach)
	assert.NotContains(t, kinds, model.AlertPriorityGuaranteeViolation)
}

func TestSimulateDeniedGuaranteedCargoAlerts(t *testing.T) {
	// Cargo wants A->C but only A->B exists.
	flights := map[string]*model.Flight{
		"FL1": flight("FL1", "A", "B", at(8, 0), at(10, 0), 10000),
	}
	cg := cargoOf("H1", model.PriorityHigh, 500)
	cg.Destination = "C"
	cat := route.BuildCatalog(map[string]*model.Cargo{"H1": cg}, flights, nil, 4, 0.25)

	plan := Simulate(Individual{0}, cat, flights, config.Default().Knapsack)
	a := plan.Assignments["H1"]
	assert.Equal(t, model.StatusDenied, a.Status)
	assert.InDelta(t, -0.25*cg.RevenueINR, a.Margin, 1e-9)

	var kinds []model.AlertKind
	for _, al := range plan.Alerts {
		kinds = append(kinds, al.Kind)
	}
	assert.Contains(t, kinds, model.AlertPriorityGuaranteeViolation)
	assert.Contains(t, kinds, model.AlertBaselineException)
}

func TestSimulateRolledCargoReleasesDownstreamCapacity(t *testing.T) {
	// CG1 and CG2 both route A->B->C. The first flight only fits one, the
	// second could fit both. The rolled cargo must not occupy the second.
	flights := map[string]*model.Flight{
		"AB1": flight("AB1", "A", "B", at(8, 0), at(10, 0), 600),
		"BC1": flight("BC1", "B", "C", at(11, 30), at(14, 0), 2000),
	}
	mk := func(id string) *model.Cargo {
		c := cargoOf(id, model.PriorityLow, 500)
		c.Destination = "C"
		return c
	}
	cm := map[string]*model.Cargo{"CGA": mk("CGA"), "CGB": mk("CGB")}
	cat := route.BuildCatalog(cm, flights, nil, 4, 0.25)

	plan := Simulate(Individual{0, 0}, cat, flights, config.Default().Knapsack)

	statuses := map[model.AssignmentStatus]int{}
	for _, a := range plan.Assignments {
		statuses[a.Status]++
	}
	assert.Equal(t, 1, statuses[model.StatusDelivered])
	assert.Equal(t, 1, statuses[model.StatusRolled])

	for _, load := range plan.FlightLoads {
		if load.Flight.ID == "BC1" {
			assert.Len(t, load.CargoIDs, 1)
		}
	}
}

func TestSimulateIdenticalDeparturesProcessedByFlightID(t *testing.T) {
	flights := map[string]*model.Flight{
		"FLB": flight("FLB", "A", "B", at(8, 0), at(10, 0), 5000),
		"FLA": flight("FLA", "A", "B", at(8, 0), at(10, 0), 5000),
	}
	cg := cargoOf("CG1", model.PriorityLow, 1000)
	cat := route.BuildCatalog(map[string]*model.Cargo{"CG1": cg}, flights, nil, 4, 0.25)

	plan := Simulate(Individual{0}, cat, flights, config.Default().Knapsack)
	require.Len(t, plan.FlightLoads, 2)
	assert.Equal(t, "FLA", plan.FlightLoads[0].Flight.ID)
	assert.Equal(t, "FLB", plan.FlightLoads[1].Flight.ID)
}

func TestSimulateTotalMarginSumsAssignments(t *testing.T) {
	cat, flights := singleFlightWorld(1000,
		cargoOf("H1", model.PriorityHigh, 600),
		cargoOf("L1", model.PriorityLow, 600),
	)
	plan := Simulate(Individual{0, 0}, cat, flights, config.Default().Knapsack)
	var sum float64
	for _, a := range plan.Assignments {
		sum += a.Margin
	}
	assert.InDelta(t, sum, plan.TotalMargin, 1e-9)
}

func TestOptimizeDeterministicAcrossRuns(t *testing.T) {
	cat, flights := singleFlightWorld(1500,
		cargoOf("H1", model.PriorityHigh, 600),
		cargoOf("L1", model.PriorityLow, 600),
		cargoOf("L2", model.PriorityLow, 600),
	)
	cfg := smallCfg(42)

	first, err := Optimize(context.Background(), cat, flights, cfg, cfg.Seed)
	require.NoError(t, err)
	second, err := Optimize(context.Background(), cat, flights, cfg, cfg.Seed)
	require.NoError(t, err)

	assert.Equal(t, first.Best, second.Best)
	assert.Equal(t, first.Plan.TotalMargin, second.Plan.TotalMargin)
	assert.Equal(t, first.Generations, second.Generations)
	for id, a := range first.Plan.Assignments {
		assert.Equal(t, a.Status, second.Plan.Assignments[id].Status, id)
		assert.Equal(t, a.Margin, second.Plan.Assignments[id].Margin, id)
	}
}

func TestOptimizeSeedChangesSearchNotValidity(t *testing.T) {
	cat, flights := singleFlightWorld(10000, cargoOf("CG1", model.PriorityLow, 2000))
	cfg := smallCfg(1)

	res, err := Optimize(context.Background(), cat, flights, cfg, 99)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, res.Plan.Assignments["CG1"].Status)
}

func TestOptimizeBudgetEmitsPartialAlert(t *testing.T) {
	// A deliberately heavy instance so each generation costs real time and
	// the wall-clock budget expires long before the stagnation cutoff.
	flights := make(map[string]*model.Flight)
	cm := make(map[string]*model.Cargo)
	for i := 0; i < 5; i++ {
		id := string(rune('V' + i))
		fid := "FL" + id
		flights[fid] = flight(fid, "A", "B", at(7+i, 0), at(9+i, 0), 3000)
	}
	for i := 0; i < 40; i++ {
		id := rune('A' + i%26)
		c := cargoOf("CG"+string(id)+string(rune('0'+i/26)), model.PriorityLow, 200)
		cm[c.ID] = c
	}
	cat := route.BuildCatalog(cm, flights, nil, 4, 0.25)

	cfg := smallCfg(42)
	cfg.PopulationSize = 200
	cfg.Generations = 100000
	cfg.OptimizationBudgetMs = 5

	start := time.Now()
	res, err := Optimize(context.Background(), cat, flights, cfg, cfg.Seed)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)

	var kinds []model.AlertKind
	for _, a := range res.Plan.Alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, model.AlertPartialOptimization)
}

func TestOptimizeHonorsCancellation(t *testing.T) {
	cat, flights := singleFlightWorld(10000, cargoOf("CG1", model.PriorityLow, 2000))
	cfg := smallCfg(42)
	cfg.Generations = 100000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Optimize(ctx, cat, flights, cfg, cfg.Seed)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.NotNil(t, res.Plan)
}
