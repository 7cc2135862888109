package disrupt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/ga"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

var ist = time.FixedZone("Asia/Calcutta", 5*3600+30*60)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 1, hour, min, 0, 0, ist)
}

func flightMap() map[string]*model.Flight {
	return map[string]*model.Flight{
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
	}
}

func TestDeriveSeedIsStableAndDifferent(t *testing.T) {
	assert.Equal(t, DeriveSeed(42), DeriveSeed(42))
	assert.NotEqual(t, int64(42), DeriveSeed(42))
}

func TestApplyEventsDelay(t *testing.T) {
	mutated, alerts := ApplyEvents(flightMap(), []model.DisruptionEvent{
		{Kind: model.EventDelay, FlightID: "AB1", DelayMinutes: 120},
	})

	fl := mutated["AB1"]
	assert.True(t, fl.Departure.Equal(at(10, 0)))
	assert.True(t, fl.Arrival.Equal(at(12, 0)))

	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertDisruptionApplied, alerts[0].Kind)
	assert.Equal(t, model.SeverityInfo, alerts[0].Severity)
}

func TestApplyEventsCancel(t *testing.T) {
	mutated, alerts := ApplyEvents(flightMap(), []model.DisruptionEvent{
		{Kind: model.EventCancel, FlightID: "BC1"},
	})
	assert.NotContains(t, mutated, "BC1")
	assert.Contains(t, mutated, "AB1")
	require.Len(t, alerts, 1)
}

func TestApplyEventsSwap(t *testing.T) {
	w := 5000.0
	mutated, _ := ApplyEvents(flightMap(), []model.DisruptionEvent{
		{Kind: model.EventSwap, FlightID: "AB1", NewWeightCapacityKg: &w},
	})
	assert.Equal(t, 5000.0, mutated["AB1"].WeightCapacityKg)
	assert.Equal(t, 50.0, mutated["AB1"].VolumeCapacityM3)
}

func TestApplyEventsDoesNotMutateInput(t *testing.T) {
	original := flightMap()
	w := 1.0
	ApplyEvents(original, []model.DisruptionEvent{
		{Kind: model.EventDelay, FlightID: "AB1", DelayMinutes: 60},
		{Kind: model.EventSwap, FlightID: "BC1", NewWeightCapacityKg: &w},
	})
	assert.True(t, original["AB1"].Departure.Equal(at(8, 0)))
	assert.Equal(t, 8000.0, original["BC1"].WeightCapacityKg)
}

func TestApplyEventsUnknownFlightWarns(t *testing.T) {
	_, alerts := ApplyEvents(flightMap(), []model.DisruptionEvent{
		{Kind: model.EventCancel, FlightID: "NOPE"},
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, model.SeverityWarning, alerts[0].Severity)
}

func assignment(id string, status model.AssignmentStatus, margin float64, seq ...string) *model.CargoAssignment {
	legs := make([]model.RouteLeg, len(seq))
	for i, fid := range seq {
		legs[i] = model.RouteLeg{Flight: &model.Flight{ID: fid}}
	}
	return &model.CargoAssignment{
		Cargo:  &model.Cargo{ID: id},
		Route:  &model.RouteOption{CargoID: id, Legs: legs},
		Status: status,
		Margin: margin,
	}
}

func planOf(assignments ...*model.CargoAssignment) *ga.Plan {
	p := &ga.Plan{Assignments: make(map[string]*model.CargoAssignment)}
	for _, a := range assignments {
		p.Assignments[a.Cargo.ID] = a
	}
	return p
}

func TestDiffPlansStatusChange(t *testing.T) {
	baseline := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB1", "BC1"))
	disrupted := planOf(assignment("CG1", model.StatusDenied, -25000))

	alerts := DiffPlans(baseline, disrupted, 5000)
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.AlertStatusChange, alerts[0].Kind)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)

	var kinds []model.AlertKind
	for _, a := range alerts {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, model.AlertMarginChange)
}

func TestDiffPlansReroute(t *testing.T) {
	baseline := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB1", "BC1"))
	disrupted := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB2", "BC1"))

	alerts := DiffPlans(baseline, disrupted, 5000)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertReroute, alerts[0].Kind)
}

func TestDiffPlansMarginThreshold(t *testing.T) {
	baseline := planOf(assignment("CG1", model.StatusDelivered, 100000, "AB1"))

	// 10% of 100000 beats the 5000 floor; an 8000 move stays silent.
	quiet := planOf(assignment("CG1", model.StatusDelivered, 92000, "AB1"))
	assert.Empty(t, DiffPlans(baseline, quiet, 5000))

	loud := planOf(assignment("CG1", model.StatusDelivered, 80000, "AB1"))
	alerts := DiffPlans(baseline, loud, 5000)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertMarginChange, alerts[0].Kind)
	assert.Equal(t, model.SeverityWarning, alerts[0].Severity)
	require.NotNil(t, alerts[0].MarginDelta)
	assert.InDelta(t, -20000, *alerts[0].MarginDelta, 1e-9)
}

func TestDiffPlansCargoMissing(t *testing.T) {
	baseline := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB1"))
	disrupted := planOf()

	alerts := DiffPlans(baseline, disrupted, 5000)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCargoMissing, alerts[0].Kind)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
}

func TestDiffPlansIdenticalPlansSilent(t *testing.T) {
	baseline := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB1", "BC1"))
	same := planOf(assignment("CG1", model.StatusDelivered, 50000, "AB1", "BC1"))
	assert.Empty(t, DiffPlans(baseline, same, 5000))
}
