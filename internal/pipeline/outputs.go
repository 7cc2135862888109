package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func num(v float64) string { return fmt.Sprintf("%.2f", round2(v)) }

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// WriteOutputs writes the four plan artifacts into dir, creating it if
// needed. Rows are sorted so identical plans serialize byte-identically.
func WriteOutputs(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writePlanRoutes(filepath.Join(dir, "plan_routes.csv"), res); err != nil {
		return err
	}
	if err := writeFlightLoads(filepath.Join(dir, "flight_loads.csv"), res); err != nil {
		return err
	}
	if err := writeAlerts(filepath.Join(dir, "alerts.csv"), res.Alerts); err != nil {
		return err
	}
	return writeSummary(filepath.Join(dir, "plan_summary.json"), res)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writePlanRoutes(path string, res *Result) error {
	ids := make([]string, 0, len(res.Plan.Assignments))
	for id := range res.Plan.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		a := res.Plan.Assignments[id]
		seq := "DENIED"
		if !a.Route.Denied() {
			seq = strings.Join(a.Route.FlightSequence(), " ")
		}
		totalCost := a.Route.OperatingCost + a.Route.HandlingCost + a.Route.SLAPenalty
		rows = append(rows, []string{
			id,
			string(a.Status),
			a.Reason,
			seq,
			stamp(a.Route.Departure),
			stamp(a.Route.Arrival),
			num(totalCost),
			num(a.Cargo.RevenueINR),
			num(a.Margin),
			num(a.Route.TransitHours),
			num(a.Route.SLAPenalty),
			num(a.Route.HandlingCost),
			a.Route.Notes,
		})
	}
	return writeCSV(path, []string{
		"cargo_id", "status", "reason", "flights", "etd", "eta",
		"total_cost", "revenue_inr", "margin", "transit_hours",
		"sla_penalty", "handling_cost", "notes",
	}, rows)
}

func writeFlightLoads(path string, res *Result) error {
	rows := make([][]string, 0, len(res.Plan.FlightLoads))
	for i := range res.Plan.FlightLoads {
		load := &res.Plan.FlightLoads[i]
		fl := load.Flight
		rows = append(rows, []string{
			fl.ID,
			fl.Origin,
			fl.Destination,
			stamp(fl.Departure),
			stamp(fl.Arrival),
			num(fl.WeightCapacityKg),
			num(fl.VolumeCapacityM3),
			num(load.WeightUsed),
			num(load.VolumeUsed),
			num(load.WeightUtilization()),
			num(load.VolumeUtilization()),
			strings.Join(load.CargoIDs, " "),
			num(load.Revenue),
		})
	}
	return writeCSV(path, []string{
		"flight_id", "origin", "destination", "departure", "arrival",
		"weight_capacity_kg", "volume_capacity_m3", "weight_used_kg",
		"volume_used_m3", "weight_utilization_pct", "volume_utilization_pct",
		"cargo", "revenue_inr",
	}, rows)
}

func writeAlerts(path string, alerts []model.Alert) error {
	rows := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		delta := ""
		if a.MarginDelta != nil {
			delta = num(*a.MarginDelta)
		}
		rows = append(rows, []string{
			string(a.Kind),
			string(a.Severity),
			a.Message,
			a.CargoID,
			a.FlightID,
			string(a.Status),
			delta,
		})
	}
	return writeCSV(path, []string{
		"alert_type", "severity", "message", "cargo_id", "flight_id",
		"status", "margin_delta",
	}, rows)
}

// Summary is the plan_summary.json document.
type Summary struct {
	TotalMargin          float64        `json:"total_margin"`
	Delivered            int            `json:"delivered"`
	Rolled               int            `json:"rolled"`
	Denied               int            `json:"denied"`
	CargoCount           int            `json:"cargo_count"`
	FlightCount          int            `json:"flight_count"`
	AvgWeightUtilization float64        `json:"avg_weight_utilization_pct"`
	AvgVolumeUtilization float64        `json:"avg_volume_utilization_pct"`
	AlertCounts          map[string]int `json:"alert_counts"`
	Generations          int            `json:"generations"`
	Seed                 int64          `json:"seed"`
	EventsApplied        int            `json:"events_applied"`
}

// BuildSummary aggregates the run totals.
func BuildSummary(res *Result) Summary {
	s := Summary{
		TotalMargin:   round2(res.Plan.TotalMargin),
		CargoCount:    len(res.Plan.Assignments),
		FlightCount:   len(res.Plan.FlightLoads),
		AlertCounts:   map[string]int{"info": 0, "warning": 0, "critical": 0},
		Generations:   res.Generations,
		Seed:          res.Seed,
		EventsApplied: res.EventCount,
	}
	for _, a := range res.Plan.Assignments {
		switch a.Status {
		case model.StatusDelivered:
			s.Delivered++
		case model.StatusRolled:
			s.Rolled++
		case model.StatusDenied:
			s.Denied++
		}
	}
	var w, v float64
	for i := range res.Plan.FlightLoads {
		w += res.Plan.FlightLoads[i].WeightUtilization()
		v += res.Plan.FlightLoads[i].VolumeUtilization()
	}
	if n := len(res.Plan.FlightLoads); n > 0 {
		s.AvgWeightUtilization = round2(w / float64(n))
		s.AvgVolumeUtilization = round2(v / float64(n))
	}
	for _, a := range res.Alerts {
		s.AlertCounts[string(a.Severity)]++
	}
	return s
}

func writeSummary(path string, res *Result) error {
	data, err := json.MarshalIndent(BuildSummary(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
