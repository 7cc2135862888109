package pipeline

import (
	"sort"
	"strings"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// CargoRow mirrors one plan_routes.csv row for the API payload.
type CargoRow struct {
	CargoID      string  `json:"cargo_id"`
	Status       string  `json:"status"`
	Reason       string  `json:"reason,omitempty"`
	Flights      string  `json:"flights"`
	ETD          string  `json:"etd,omitempty"`
	ETA          string  `json:"eta,omitempty"`
	TotalCost    float64 `json:"total_cost"`
	RevenueINR   float64 `json:"revenue_inr"`
	Margin       float64 `json:"margin"`
	TransitHours float64 `json:"transit_hours"`
	SLAPenalty   float64 `json:"sla_penalty"`
	HandlingCost float64 `json:"handling_cost"`
	Notes        string  `json:"notes,omitempty"`
}

// FlightRow mirrors one flight_loads.csv row.
type FlightRow struct {
	FlightID             string  `json:"flight_id"`
	Origin               string  `json:"origin"`
	Destination          string  `json:"destination"`
	Departure            string  `json:"departure"`
	Arrival              string  `json:"arrival"`
	WeightCapacityKg     float64 `json:"weight_capacity_kg"`
	VolumeCapacityM3     float64 `json:"volume_capacity_m3"`
	WeightUsedKg         float64 `json:"weight_used_kg"`
	VolumeUsedM3         float64 `json:"volume_used_m3"`
	WeightUtilizationPct float64 `json:"weight_utilization_pct"`
	VolumeUtilizationPct float64 `json:"volume_utilization_pct"`
	Cargo                string  `json:"cargo"`
	RevenueINR           float64 `json:"revenue_inr"`
}

// Payload is the structured equivalent of the four output artifacts.
type Payload struct {
	Summary Summary       `json:"summary"`
	Cargo   []CargoRow    `json:"cargo"`
	Flights []FlightRow   `json:"flights"`
	Alerts  []model.Alert `json:"alerts"`
}

// BuildPayload converts a run result into the API response body.
func BuildPayload(res *Result) Payload {
	p := Payload{Summary: BuildSummary(res), Alerts: res.Alerts}
	if p.Alerts == nil {
		p.Alerts = []model.Alert{}
	}

	ids := make([]string, 0, len(res.Plan.Assignments))
	for id := range res.Plan.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		a := res.Plan.Assignments[id]
		seq := "DENIED"
		if !a.Route.Denied() {
			seq = strings.Join(a.Route.FlightSequence(), " ")
		}
		p.Cargo = append(p.Cargo, CargoRow{
			CargoID:      id,
			Status:       string(a.Status),
			Reason:       a.Reason,
			Flights:      seq,
			ETD:          stamp(a.Route.Departure),
			ETA:          stamp(a.Route.Arrival),
			TotalCost:    round2(a.Route.OperatingCost + a.Route.HandlingCost + a.Route.SLAPenalty),
			RevenueINR:   round2(a.Cargo.RevenueINR),
			Margin:       round2(a.Margin),
			TransitHours: round2(a.Route.TransitHours),
			SLAPenalty:   round2(a.Route.SLAPenalty),
			HandlingCost: round2(a.Route.HandlingCost),
			Notes:        a.Route.Notes,
		})
	}

	for i := range res.Plan.FlightLoads {
		load := &res.Plan.FlightLoads[i]
		fl := load.Flight
		p.Flights = append(p.Flights, FlightRow{
			FlightID:             fl.ID,
			Origin:               fl.Origin,
			Destination:          fl.Destination,
			Departure:            stamp(fl.Departure),
			Arrival:              stamp(fl.Arrival),
			WeightCapacityKg:     round2(fl.WeightCapacityKg),
			VolumeCapacityM3:     round2(fl.VolumeCapacityM3),
			WeightUsedKg:         round2(load.WeightUsed),
			VolumeUsedM3:         round2(load.VolumeUsed),
			WeightUtilizationPct: round2(load.WeightUtilization()),
			VolumeUtilizationPct: round2(load.VolumeUtilization()),
			Cargo:                strings.Join(load.CargoIDs, " "),
			RevenueINR:           round2(load.Revenue),
		})
	}
	return p
}
