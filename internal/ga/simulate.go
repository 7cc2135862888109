// Package ga searches the space of per-cargo route choices with a seeded
// genetic algorithm and simulates candidate plans flight by flight.
package ga

import (
	"fmt"
	"sort"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/knapsack"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/route"
)

// Individual assigns each cargo (in catalog order) an index into its route
// option list.
type Individual []int

// complexityPenalty is subtracted from fitness once per flown leg so equal
// margin resolves toward simpler plans.
const complexityPenalty = 1.0

// rolloverHours approximates the delay cost charged to a rolled cargo.
const rolloverHours = 4.0

// FlightLoad is the realized load of one flight in a plan.
type FlightLoad struct {
	Flight     *model.Flight
	CargoIDs   []string
	WeightUsed float64
	VolumeUsed float64
	Revenue    float64
}

// WeightUtilization is boarded weight over capacity, in percent.
func (l *FlightLoad) WeightUtilization() float64 {
	return 100 * l.WeightUsed / l.Flight.WeightCapacityKg
}

// VolumeUtilization is boarded volume over capacity, in percent.
func (l *FlightLoad) VolumeUtilization() float64 {
	return 100 * l.VolumeUsed / l.Flight.VolumeCapacityM3
}

// Plan is the full outcome of simulating one individual.
type Plan struct {
	Assignments map[string]*model.CargoAssignment
	FlightLoads []FlightLoad
	Alerts      []model.Alert
	TotalMargin float64
	Fitness     float64
}

// Simulate walks flights in departure order, boarding cargo via the
// knapsack selector. A cargo rejected on any leg is rolled and its later
// legs release capacity; the simulator does not re-optimize downstream.
func Simulate(ind Individual, cat *route.Catalog, flights map[string]*model.Flight, weights config.KnapsackWeights) *Plan {
	plan := &Plan{Assignments: make(map[string]*model.CargoAssignment, len(cat.CargoIDs))}

	chosen := make(map[string]*model.RouteOption, len(cat.CargoIDs))
	for i, id := range cat.CargoIDs {
		opt := cat.Options[id][ind[i]]
		chosen[id] = opt
		cg := cat.Cargo[id]
		if opt.Denied() {
			plan.Assignments[id] = &model.CargoAssignment{
				Cargo:  cg,
				Route:  opt,
				Status: model.StatusDenied,
				Margin: opt.Margin,
				Reason: "no feasible itinerary",
			}
		} else {
			plan.Assignments[id] = &model.CargoAssignment{
				Cargo:  cg,
				Route:  opt,
				Status: model.StatusDelivered,
				Margin: opt.Margin,
			}
		}
	}

	// candidatesByFlight[fid] lists (cargo, dwell) pairs wanting that leg.
	candidatesByFlight := make(map[string][]knapsack.Candidate)
	legsRemaining := make(map[string]int, len(cat.CargoIDs))
	for _, id := range cat.CargoIDs {
		opt := chosen[id]
		if opt.Denied() {
			continue
		}
		legsRemaining[id] = len(opt.Legs)
		for _, leg := range opt.Legs {
			candidatesByFlight[leg.Flight.ID] = append(candidatesByFlight[leg.Flight.ID], knapsack.Candidate{
				Cargo:      cat.Cargo[id],
				DwellHours: leg.DwellHoursBefore,
			})
		}
	}

	order := make([]*model.Flight, 0, len(flights))
	for _, fl := range flights {
		order = append(order, fl)
	}
	sort.Slice(order, func(i, j int) bool {
		if !order[i].Departure.Equal(order[j].Departure) {
			return order[i].Departure.Before(order[j].Departure)
		}
		return order[i].ID < order[j].ID
	})

	rolled := make(map[string]bool)
	for _, fl := range order {
		var eligible []knapsack.Candidate
		for _, cand := range candidatesByFlight[fl.ID] {
			if !rolled[cand.Cargo.ID] {
				eligible = append(eligible, cand)
			}
		}
		load := FlightLoad{Flight: fl}
		if len(eligible) > 0 {
			sel := knapsack.Select(fl, eligible, weights)
			plan.Alerts = append(plan.Alerts, sel.Alerts...)
			for _, c := range sel.Boarded {
				id := c.Cargo.ID
				load.CargoIDs = append(load.CargoIDs, id)
				load.WeightUsed += c.Cargo.WeightKg
				load.VolumeUsed += c.Cargo.VolumeM3
				legsRemaining[id]--
				if legsRemaining[id] == 0 {
					load.Revenue += c.Cargo.RevenueINR
				}
			}
			for _, c := range sel.Rejected {
				id := c.Cargo.ID
				rolled[id] = true
				a := plan.Assignments[id]
				a.Status = model.StatusRolled
				a.Margin = -(c.Cargo.SLAPenaltyPerHour*rolloverHours + c.Cargo.WeightKg*c.Cargo.HandlingCostPerKg)
				a.Reason = fmt.Sprintf("lost capacity on flight %s", fl.ID)
			}
		}
		plan.FlightLoads = append(plan.FlightLoads, load)
	}

	flownLegs := 0
	for _, id := range cat.CargoIDs {
		a := plan.Assignments[id]
		plan.TotalMargin += a.Margin
		if a.Status == model.StatusDelivered {
			flownLegs += len(a.Route.Legs)
		}
		if a.Cargo.Priority.Guaranteed() && a.Status != model.StatusDelivered {
			plan.Alerts = append(plan.Alerts, model.Alert{
				Kind:     model.AlertPriorityGuaranteeViolation,
				Severity: model.SeverityCritical,
				CargoID:  id,
				Status:   a.Status,
				Message:  fmt.Sprintf("%s priority cargo %s is %s: %s", a.Cargo.Priority, id, a.Status, a.Reason),
			})
		}
		if a.Status == model.StatusDenied {
			plan.Alerts = append(plan.Alerts, model.Alert{
				Kind:     model.AlertBaselineException,
				Severity: model.SeverityWarning,
				CargoID:  id,
				Status:   model.StatusDenied,
				Message:  fmt.Sprintf("cargo %s has no feasible itinerary", id),
			})
		}
	}
	plan.Fitness = plan.TotalMargin - complexityPenalty*float64(flownLegs)
	return plan
}
