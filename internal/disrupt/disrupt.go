// Package disrupt mutates the flight set per an event list and diffs a
// re-optimized plan against its baseline.
package disrupt

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/ga"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// seedMix decorrelates the disruption re-plan from the baseline search
// while keeping it a pure function of the baseline seed.
const seedMix = 0x5DEECE66D

// DeriveSeed returns the seed for the post-disruption optimization.
func DeriveSeed(baseline int64) int64 { return baseline ^ seedMix }

// ApplyEvents clones the flight map and applies each event in input order.
// One disruption_applied info alert is emitted per applied event; events
// naming an unknown flight produce a warning and are skipped.
func ApplyEvents(flights map[string]*model.Flight, events []model.DisruptionEvent) (map[string]*model.Flight, []model.Alert) {
	mutated := make(map[string]*model.Flight, len(flights))
	for id, fl := range flights {
		cp := *fl
		mutated[id] = &cp
	}

	var alerts []model.Alert
	for _, ev := range events {
		fl, ok := mutated[ev.FlightID]
		if !ok {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertDisruptionApplied,
				Severity: model.SeverityWarning,
				FlightID: ev.FlightID,
				Message:  fmt.Sprintf("%s event ignored: unknown flight %s", ev.Kind, ev.FlightID),
			})
			continue
		}
		var msg string
		switch ev.Kind {
		case model.EventDelay:
			shift := time.Duration(ev.DelayMinutes) * time.Minute
			fl.Departure = fl.Departure.Add(shift)
			fl.Arrival = fl.Arrival.Add(shift)
			msg = fmt.Sprintf("flight %s delayed by %d minutes", ev.FlightID, ev.DelayMinutes)
		case model.EventCancel:
			delete(mutated, ev.FlightID)
			msg = fmt.Sprintf("flight %s cancelled", ev.FlightID)
		case model.EventSwap:
			if ev.NewWeightCapacityKg != nil {
				fl.WeightCapacityKg = *ev.NewWeightCapacityKg
			}
			if ev.NewVolumeCapacityM3 != nil {
				fl.VolumeCapacityM3 = *ev.NewVolumeCapacityM3
			}
			msg = fmt.Sprintf("flight %s capacity swapped to %.0fkg/%.1fm3",
				ev.FlightID, fl.WeightCapacityKg, fl.VolumeCapacityM3)
		}
		alerts = append(alerts, model.Alert{
			Kind:     model.AlertDisruptionApplied,
			Severity: model.SeverityInfo,
			FlightID: ev.FlightID,
			Message:  msg,
		})
	}
	return mutated, alerts
}

// DiffPlans compares the disrupted plan against the baseline, cargo by
// cargo in ascending ID order. threshold is the absolute margin-change
// floor; a 10% relative floor applies when larger.
func DiffPlans(baseline, disrupted *ga.Plan, threshold float64) []model.Alert {
	var alerts []model.Alert

	ids := make([]string, 0, len(baseline.Assignments))
	for id := range baseline.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		before := baseline.Assignments[id]
		after, ok := disrupted.Assignments[id]
		if !ok {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertCargoMissing,
				Severity: model.SeverityCritical,
				CargoID:  id,
				Message:  fmt.Sprintf("cargo %s present in baseline is absent after disruption", id),
			})
			continue
		}

		if before.Status != after.Status {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertStatusChange,
				Severity: statusChangeSeverity(before.Status, after.Status),
				CargoID:  id,
				Status:   after.Status,
				Message:  fmt.Sprintf("cargo %s went from %s to %s", id, before.Status, after.Status),
			})
		} else if before.Status == model.StatusDelivered && !sameSequence(before, after) {
			alerts = append(alerts, model.Alert{
				Kind:     model.AlertReroute,
				Severity: model.SeverityInfo,
				CargoID:  id,
				Status:   after.Status,
				Message:  fmt.Sprintf("cargo %s rerouted from [%v] to [%v]", id, before.Route.FlightSequence(), after.Route.FlightSequence()),
			})
		}

		delta := after.Margin - before.Margin
		floor := math.Max(threshold, 0.1*math.Abs(before.Margin))
		if math.Abs(delta) > floor {
			d := delta
			sev := model.SeverityInfo
			if delta < 0 {
				sev = model.SeverityWarning
			}
			alerts = append(alerts, model.Alert{
				Kind:        model.AlertMarginChange,
				Severity:    sev,
				CargoID:     id,
				MarginDelta: &d,
				Message:     fmt.Sprintf("cargo %s margin moved by %+.2f", id, delta),
			})
		}
	}
	return alerts
}

func statusChangeSeverity(before, after model.AssignmentStatus) model.Severity {
	switch {
	case before == model.StatusDelivered && after == model.StatusDenied:
		return model.SeverityCritical
	case before == model.StatusDelivered && after == model.StatusRolled:
		return model.SeverityWarning
	case after == model.StatusDelivered:
		return model.SeverityInfo
	default:
		return model.SeverityWarning
	}
}

func sameSequence(a, b *model.CargoAssignment) bool {
	sa, sb := a.Route.FlightSequence(), b.Route.FlightSequence()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
