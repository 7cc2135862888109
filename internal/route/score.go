package route

import (
	"fmt"
	"strings"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// buildOption materializes and scores one itinerary.
//
//	operating = sum over legs of cost_per_kg * weight
//	handling  = sum of connection fees + handling_cost_per_kg * weight
//	penalty   = max(0, arrival - due_by) hours * sla_penalty_per_hour
//	margin    = revenue - operating - handling - penalty
func buildOption(cg *model.Cargo, flights []*model.Flight, rules *RuleIndex) *model.RouteOption {
	legs := make([]model.RouteLeg, len(flights))
	var operating, connectionFees float64
	for i, fl := range flights {
		leg := model.RouteLeg{Flight: fl, Departure: fl.Departure, Arrival: fl.Arrival}
		if i > 0 {
			prev := flights[i-1]
			rule := rules.Lookup(cg.Origin, cg.Destination, prev.Destination)
			leg.DwellHoursBefore = fl.Departure.Sub(prev.Arrival).Hours()
			leg.ConnectionFee = rule.HandlingFee
			connectionFees += rule.HandlingFee
		}
		operating += fl.CostPerKg * cg.WeightKg
		legs[i] = leg
	}

	first := flights[0]
	last := flights[len(flights)-1]
	handling := connectionFees + cg.HandlingCostPerKg*cg.WeightKg
	latenessHours := last.Arrival.Sub(cg.DueBy).Hours()
	if latenessHours < 0 {
		latenessHours = 0
	}
	penalty := latenessHours * cg.SLAPenaltyPerHour

	opt := &model.RouteOption{
		CargoID:       cg.ID,
		Legs:          legs,
		OperatingCost: operating,
		HandlingCost:  handling,
		SLAPenalty:    penalty,
		Margin:        cg.RevenueINR - operating - handling - penalty,
		TransitHours:  last.Arrival.Sub(first.Departure).Hours(),
		Departure:     first.Departure,
		Arrival:       last.Arrival,
		OnTime:        !last.Arrival.After(cg.DueBy),
	}
	if !opt.OnTime {
		opt.Notes = fmt.Sprintf("late by %.1fh", latenessHours)
	}
	return opt
}

// DeniedOption is the distinguished empty-legs fallback. Its margin models
// goodwill loss as a configurable fraction of the cargo's revenue.
func DeniedOption(cg *model.Cargo, denialFactor float64) *model.RouteOption {
	return &model.RouteOption{
		CargoID: cg.ID,
		Margin:  -cg.RevenueINR * denialFactor,
		Notes:   "no feasible itinerary",
	}
}

// sequenceKey is the tie-break key for option ordering.
func sequenceKey(opt *model.RouteOption) string {
	return strings.Join(opt.FlightSequence(), " ")
}
