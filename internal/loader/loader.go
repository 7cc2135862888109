// Package loader ingests the three tabular inputs (flights, cargo,
// connection rules) and the disruption event list. All schema and value
// problems surface as *ValidationError so callers can map them to exit
// code 2 or HTTP 400.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// ValidationError marks malformed input data. The pipeline aborts on it.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func errf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Naive timestamps are interpreted in Asia/Calcutta.
var defaultZone = time.FixedZone("Asia/Calcutta", 5*3600+30*60)

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses an ISO 8601 timestamp. Values without zone information
// are placed in Asia/Calcutta (+05:30).
func ParseTime(value, field string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, v, defaultZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errf("value %q for field %q is not a valid ISO 8601 timestamp", value, field)
}

func parseBool(value, field string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, errf("field %q with value %q must be boolean-like", field, value)
}

func parseFloat(value, field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errf("field %q with value %q is not a number", field, value)
	}
	return f, nil
}

func parseInt(value, field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errf("field %q with value %q is not an integer", field, value)
	}
	return n, nil
}

func requirePositive(field string, v float64) error {
	if v <= 0 {
		return errf("field %q must be positive, found %v", field, v)
	}
	return nil
}

func requireNonNegative(field string, v float64) error {
	if v < 0 {
		return errf("field %q must be >= 0, found %v", field, v)
	}
	return nil
}

// readTable reads a headered CSV into one map per row, verifying that all
// required columns are present. Extra columns are ignored.
func readTable(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, errf("%s: cannot read header: %v", filepath.Base(path), err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, errf("%s: missing required column %q", filepath.Base(path), col)
		}
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errf("%s line %d: %v", filepath.Base(path), line, err)
		}
		row := make(map[string]string, len(required))
		for _, col := range required {
			i := index[col]
			if i >= len(record) {
				return nil, errf("%s line %d: missing value for %q", filepath.Base(path), line, col)
			}
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadFlights reads flights.csv keyed by flight ID.
func LoadFlights(path string) (map[string]*model.Flight, error) {
	rows, err := readTable(path, []string{
		"flight_id", "origin", "destination", "departure", "arrival",
		"weight_capacity_kg", "volume_capacity_m3", "cost_per_kg",
	})
	if err != nil {
		return nil, err
	}

	flights := make(map[string]*model.Flight, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["flight_id"])
		if id == "" {
			return nil, errf("%s: flight_id cannot be empty", filepath.Base(path))
		}
		if _, dup := flights[id]; dup {
			return nil, errf("%s: duplicate flight_id %q", filepath.Base(path), id)
		}
		dep, err := ParseTime(row["departure"], "departure")
		if err != nil {
			return nil, err
		}
		arr, err := ParseTime(row["arrival"], "arrival")
		if err != nil {
			return nil, err
		}
		if !arr.After(dep) {
			return nil, errf("flight %s arrival must be after departure", id)
		}
		weightCap, err := parseFloat(row["weight_capacity_kg"], "weight_capacity_kg")
		if err != nil {
			return nil, err
		}
		volumeCap, err := parseFloat(row["volume_capacity_m3"], "volume_capacity_m3")
		if err != nil {
			return nil, err
		}
		costPerKg, err := parseFloat(row["cost_per_kg"], "cost_per_kg")
		if err != nil {
			return nil, err
		}
		if err := requirePositive("weight_capacity_kg", weightCap); err != nil {
			return nil, err
		}
		if err := requirePositive("volume_capacity_m3", volumeCap); err != nil {
			return nil, err
		}
		if err := requireNonNegative("cost_per_kg", costPerKg); err != nil {
			return nil, err
		}
		flights[id] = &model.Flight{
			ID:               id,
			Origin:           strings.ToUpper(strings.TrimSpace(row["origin"])),
			Destination:      strings.ToUpper(strings.TrimSpace(row["destination"])),
			Departure:        dep,
			Arrival:          arr,
			WeightCapacityKg: weightCap,
			VolumeCapacityM3: volumeCap,
			CostPerKg:        costPerKg,
		}
	}
	return flights, nil
}

// LoadCargo reads cargo.csv keyed by cargo ID.
func LoadCargo(path string) (map[string]*model.Cargo, error) {
	rows, err := readTable(path, []string{
		"cargo_id", "origin", "destination", "weight_kg", "volume_m3",
		"revenue_inr", "priority", "perishable", "max_transit_hours",
		"ready_time", "due_by", "handling_cost_per_kg", "sla_penalty_per_hour",
	})
	if err != nil {
		return nil, err
	}

	cargo := make(map[string]*model.Cargo, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row["cargo_id"])
		if id == "" {
			return nil, errf("%s: cargo_id cannot be empty", filepath.Base(path))
		}
		if _, dup := cargo[id]; dup {
			return nil, errf("%s: duplicate cargo_id %q", filepath.Base(path), id)
		}
		origin := strings.ToUpper(strings.TrimSpace(row["origin"]))
		destination := strings.ToUpper(strings.TrimSpace(row["destination"]))
		if origin == destination {
			return nil, errf("cargo %s origin and destination must differ", id)
		}
		weight, err := parseFloat(row["weight_kg"], "weight_kg")
		if err != nil {
			return nil, err
		}
		volume, err := parseFloat(row["volume_m3"], "volume_m3")
		if err != nil {
			return nil, err
		}
		revenue, err := parseFloat(row["revenue_inr"], "revenue_inr")
		if err != nil {
			return nil, err
		}
		maxTransit, err := parseFloat(row["max_transit_hours"], "max_transit_hours")
		if err != nil {
			return nil, err
		}
		handlingCost, err := parseFloat(row["handling_cost_per_kg"], "handling_cost_per_kg")
		if err != nil {
			return nil, err
		}
		slaPenalty, err := parseFloat(row["sla_penalty_per_hour"], "sla_penalty_per_hour")
		if err != nil {
			return nil, err
		}
		for field, v := range map[string]float64{
			"weight_kg": weight, "volume_m3": volume,
			"revenue_inr": revenue, "max_transit_hours": maxTransit,
		} {
			if err := requirePositive(field, v); err != nil {
				return nil, err
			}
		}
		if err := requireNonNegative("handling_cost_per_kg", handlingCost); err != nil {
			return nil, err
		}
		if err := requireNonNegative("sla_penalty_per_hour", slaPenalty); err != nil {
			return nil, err
		}
		priority, ok := model.ParsePriority(row["priority"])
		if !ok {
			return nil, errf("cargo %s priority %q must be one of high, medium, low", id, row["priority"])
		}
		perishable, err := parseBool(row["perishable"], "perishable")
		if err != nil {
			return nil, err
		}
		ready, err := ParseTime(row["ready_time"], "ready_time")
		if err != nil {
			return nil, err
		}
		due, err := ParseTime(row["due_by"], "due_by")
		if err != nil {
			return nil, err
		}
		if !due.After(ready) {
			return nil, errf("cargo %s due_by must be after ready_time", id)
		}
		cargo[id] = &model.Cargo{
			ID:                id,
			Origin:            origin,
			Destination:       destination,
			WeightKg:          weight,
			VolumeM3:          volume,
			RevenueINR:        revenue,
			Priority:          priority,
			Perishable:        perishable,
			MaxTransitHours:   maxTransit,
			ReadyTime:         ready,
			DueBy:             due,
			HandlingCostPerKg: handlingCost,
			SLAPenaltyPerHour: slaPenalty,
		}
	}
	return cargo, nil
}

// LoadConnections reads connections.csv. An empty connection_airport is a
// wildcard matching any transfer point for the (origin, destination) pair.
func LoadConnections(path string) ([]model.ConnectionRule, error) {
	rows, err := readTable(path, []string{
		"origin", "destination", "connection_airport",
		"min_connection_minutes", "max_connection_minutes", "handling_fee",
	})
	if err != nil {
		return nil, err
	}

	rules := make([]model.ConnectionRule, 0, len(rows))
	for _, row := range rows {
		minConnect, err := parseInt(row["min_connection_minutes"], "min_connection_minutes")
		if err != nil {
			return nil, err
		}
		maxConnect, err := parseInt(row["max_connection_minutes"], "max_connection_minutes")
		if err != nil {
			return nil, err
		}
		fee, err := parseFloat(row["handling_fee"], "handling_fee")
		if err != nil {
			return nil, err
		}
		origin := strings.ToUpper(strings.TrimSpace(row["origin"]))
		destination := strings.ToUpper(strings.TrimSpace(row["destination"]))
		if minConnect < 0 {
			return nil, errf("min_connection_minutes must be >= 0 for %s->%s", origin, destination)
		}
		if maxConnect <= 0 || maxConnect < minConnect {
			return nil, errf("max_connection_minutes must be >= min_connection_minutes for %s->%s", origin, destination)
		}
		if err := requireNonNegative("handling_fee", fee); err != nil {
			return nil, err
		}
		rules = append(rules, model.ConnectionRule{
			Origin:            origin,
			Destination:       destination,
			ConnectionAirport: strings.ToUpper(strings.TrimSpace(row["connection_airport"])),
			MinConnectMinutes: minConnect,
			MaxConnectMinutes: maxConnect,
			HandlingFee:       fee,
		})
	}
	return rules, nil
}

// Dataset bundles one run's immutable inputs.
type Dataset struct {
	Flights map[string]*model.Flight
	Cargo   map[string]*model.Cargo
	Rules   []model.ConnectionRule
}

// LoadAll reads flights.csv, cargo.csv and connections.csv from dir.
func LoadAll(dir string) (*Dataset, error) {
	flights, err := LoadFlights(filepath.Join(dir, "flights.csv"))
	if err != nil {
		return nil, err
	}
	cargo, err := LoadCargo(filepath.Join(dir, "cargo.csv"))
	if err != nil {
		return nil, err
	}
	rules, err := LoadConnections(filepath.Join(dir, "connections.csv"))
	if err != nil {
		return nil, err
	}
	return &Dataset{Flights: flights, Cargo: cargo, Rules: rules}, nil
}

// LoadEvents reads a JSON array of disruption events.
func LoadEvents(path string) ([]model.DisruptionEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return ParseEvents(data)
}

// ParseEvents decodes and validates a JSON event list.
func ParseEvents(data []byte) ([]model.DisruptionEvent, error) {
	var events []model.DisruptionEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errf("events are not a valid JSON array: %v", err)
	}
	for i, ev := range events {
		switch ev.Kind {
		case model.EventDelay, model.EventCancel, model.EventSwap:
		default:
			return nil, errf("event %d has unknown event_type %q", i, ev.Kind)
		}
		if ev.FlightID == "" {
			return nil, errf("event %d is missing flight_id", i)
		}
		if ev.Kind == model.EventDelay && ev.DelayMinutes < 0 {
			return nil, errf("event %d delay_minutes must be >= 0", i)
		}
		if ev.Kind == model.EventSwap {
			if ev.NewWeightCapacityKg == nil && ev.NewVolumeCapacityM3 == nil {
				return nil, errf("event %d swap needs a new weight or volume capacity", i)
			}
			if ev.NewWeightCapacityKg != nil && *ev.NewWeightCapacityKg <= 0 {
				return nil, errf("event %d new_weight_capacity_kg must be positive", i)
			}
			if ev.NewVolumeCapacityM3 != nil && *ev.NewVolumeCapacityM3 <= 0 {
				return nil, errf("event %d new_volume_capacity_m3 must be positive", i)
			}
		}
	}
	return events, nil
}
