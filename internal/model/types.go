package model

import (
	"strings"
	"time"
)

// Priority classifies cargo by delivery guarantee. High and medium cargo
// carry the priority guarantee: they are either delivered or accompanied by
// a critical alert explaining why the guarantee could not be met.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts the CSV spelling, case-insensitive.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

// Score maps priority to the weight used by the knapsack selector.
func (p Priority) Score() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Guaranteed reports whether p falls under the priority guarantee.
func (p Priority) Guaranteed() bool { return p == PriorityHigh || p == PriorityMedium }

// Flight is one scheduled leg in the temporal flight graph. Immutable once
// loaded; the disruption engine produces a fresh map rather than mutating.
type Flight struct {
	ID               string
	Origin           string
	Destination      string
	Departure        time.Time
	Arrival          time.Time
	WeightCapacityKg float64
	VolumeCapacityM3 float64
	CostPerKg        float64
}

// Cargo is a shipment to be planned.
type Cargo struct {
	ID                string
	Origin            string
	Destination       string
	WeightKg          float64
	VolumeM3          float64
	RevenueINR        float64
	Priority          Priority
	Perishable        bool
	MaxTransitHours   float64
	ReadyTime         time.Time
	DueBy             time.Time
	HandlingCostPerKg float64
	SLAPenaltyPerHour float64
}

// RevenueDensity is revenue per kilogram, guarded against zero weight.
func (c *Cargo) RevenueDensity() float64 {
	w := c.WeightKg
	if w < 1e-9 {
		w = 1e-9
	}
	return c.RevenueINR / w
}

// ConnectionRule constrains the dwell between two consecutive legs for
// cargo flowing (Origin -> Destination). ConnectionAirport narrows the rule
// to a specific transfer point; empty means wildcard.
type ConnectionRule struct {
	Origin            string
	Destination       string
	ConnectionAirport string
	MinConnectMinutes int
	MaxConnectMinutes int
	HandlingFee       float64
}

// Defaults applied when no rule matches a connection.
const (
	DefaultMinConnectMinutes = 60
	DefaultMaxConnectMinutes = 720
)

// RouteLeg is one flight within an itinerary, with its materialized
// schedule and the dwell spent waiting for it.
type RouteLeg struct {
	Flight           *Flight
	Departure        time.Time
	Arrival          time.Time
	DwellHoursBefore float64
	ConnectionFee    float64
}

// RouteOption is a scored itinerary for one cargo. Empty Legs marks the
// distinguished DENIED option.
type RouteOption struct {
	CargoID       string
	Legs          []RouteLeg
	OperatingCost float64
	HandlingCost  float64
	SLAPenalty    float64
	Margin        float64
	TransitHours  float64
	Departure     time.Time
	Arrival       time.Time
	OnTime        bool
	Notes         string
}

// Denied reports whether this is the DENIED fallback option.
func (r *RouteOption) Denied() bool { return len(r.Legs) == 0 }

// FlightSequence returns the ordered flight IDs of the itinerary.
func (r *RouteOption) FlightSequence() []string {
	ids := make([]string, len(r.Legs))
	for i, leg := range r.Legs {
		ids[i] = leg.Flight.ID
	}
	return ids
}

// AssignmentStatus is the final per-cargo outcome of a plan.
type AssignmentStatus string

const (
	StatusDelivered AssignmentStatus = "delivered"
	StatusRolled    AssignmentStatus = "rolled"
	StatusDenied    AssignmentStatus = "denied"
)

// CargoAssignment is the planned outcome for one cargo.
type CargoAssignment struct {
	Cargo  *Cargo
	Route  *RouteOption
	Status AssignmentStatus
	Margin float64
	Reason string
}

// AlertKind tags the structured alerts emitted by the simulator and the
// disruption engine.
type AlertKind string

const (
	AlertStatusChange               AlertKind = "status_change"
	AlertReroute                    AlertKind = "reroute"
	AlertMarginChange               AlertKind = "margin_change"
	AlertCargoMissing               AlertKind = "cargo_missing"
	AlertBaselineException          AlertKind = "baseline_exception"
	AlertDisruptionApplied          AlertKind = "disruption_applied"
	AlertCapacityBreach             AlertKind = "capacity_breach"
	AlertPriorityGuaranteeViolation AlertKind = "priority_guarantee_violation"
	AlertPartialOptimization        AlertKind = "partial_optimization"
)

// Severity ranks alerts for operator triage.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is a structured operational finding attached to a plan.
type Alert struct {
	Kind        AlertKind        `json:"alert_type"`
	Severity    Severity         `json:"severity"`
	Message     string           `json:"message"`
	CargoID     string           `json:"cargo_id,omitempty"`
	FlightID    string           `json:"flight_id,omitempty"`
	Status      AssignmentStatus `json:"status,omitempty"`
	MarginDelta *float64         `json:"margin_delta,omitempty"`
}

// EventKind tags disruption events.
type EventKind string

const (
	EventDelay  EventKind = "delay"
	EventCancel EventKind = "cancel"
	EventSwap   EventKind = "swap"
)

// DisruptionEvent mutates the flight set for what-if analysis.
type DisruptionEvent struct {
	Kind                EventKind `json:"event_type"`
	FlightID            string    `json:"flight_id"`
	DelayMinutes        int       `json:"delay_minutes,omitempty"`
	NewWeightCapacityKg *float64  `json:"new_weight_capacity_kg,omitempty"`
	NewVolumeCapacityM3 *float64  `json:"new_volume_capacity_m3,omitempty"`
}
