// Package knapsack picks which candidate cargo boards a flight. High and
// medium priority cargo always board, beyond nominal capacity if needed;
// low priority cargo competes for the residual via subset search.
package knapsack

import (
	"fmt"
	"sort"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/config"
	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// Candidate is one cargo competing for a flight. DwellHours is the wait
// this cargo spends before the flight in its chosen itinerary; it feeds the
// w4 term of the subset score.
type Candidate struct {
	Cargo      *model.Cargo
	DwellHours float64
}

// Selection is the boarding decision for one flight.
type Selection struct {
	FlightID   string
	Boarded    []Candidate
	Rejected   []Candidate
	WeightUsed float64
	VolumeUsed float64
	Alerts     []model.Alert
}

// exhaustiveLimit is the |L| above which subset search switches from
// bitmask enumeration to greedy plus 2-opt.
const exhaustiveLimit = 12

// Select applies the priority-reservation protocol. High and medium cargo
// are reserved first; if they fit, low cargo is chosen by subset search
// over the residual capacity. If the reservation itself overflows, all
// guaranteed cargo still boards and a critical capacity_breach alert is
// attached; low cargo gets nothing on that flight. Ties are broken by
// ascending cargo ID throughout, so identical inputs yield identical
// output.
func Select(fl *model.Flight, candidates []Candidate, weights config.KnapsackWeights) Selection {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cargo.ID < sorted[j].Cargo.ID })

	var guaranteed, low []Candidate
	for _, c := range sorted {
		if c.Cargo.Priority.Guaranteed() {
			guaranteed = append(guaranteed, c)
		} else {
			low = append(low, c)
		}
	}

	sel := Selection{FlightID: fl.ID}
	var gw, gv float64
	for _, c := range guaranteed {
		gw += c.Cargo.WeightKg
		gv += c.Cargo.VolumeM3
	}

	if gw > fl.WeightCapacityKg || gv > fl.VolumeCapacityM3 {
		// Emergency override: the guarantee outranks the airframe's
		// nominal numbers. Everything guaranteed boards, low waits.
		sel.Boarded = guaranteed
		sel.Rejected = low
		sel.WeightUsed = gw
		sel.VolumeUsed = gv
		sel.Alerts = append(sel.Alerts, model.Alert{
			Kind:     model.AlertCapacityBreach,
			Severity: model.SeverityCritical,
			FlightID: fl.ID,
			Message: fmt.Sprintf(
				"flight %s boarded %.0fkg/%.1fm3 of priority cargo against capacity %.0fkg/%.1fm3",
				fl.ID, gw, gv, fl.WeightCapacityKg, fl.VolumeCapacityM3),
		})
		return sel
	}

	sel.Boarded = append(sel.Boarded, guaranteed...)
	sel.WeightUsed = gw
	sel.VolumeUsed = gv

	residualW := fl.WeightCapacityKg - gw
	residualV := fl.VolumeCapacityM3 - gv
	chosen := chooseLow(fl, low, gw, gv, residualW, residualV, weights)

	inChosen := make(map[string]bool, len(chosen))
	for _, c := range chosen {
		inChosen[c.Cargo.ID] = true
		sel.Boarded = append(sel.Boarded, c)
		sel.WeightUsed += c.Cargo.WeightKg
		sel.VolumeUsed += c.Cargo.VolumeM3
	}
	for _, c := range low {
		if !inChosen[c.Cargo.ID] {
			sel.Rejected = append(sel.Rejected, c)
		}
	}
	return sel
}

// chooseLow finds the low-priority subset maximizing the aggregate score
// within the residual capacity.
func chooseLow(fl *model.Flight, low []Candidate, baseW, baseV, residualW, residualV float64, weights config.KnapsackWeights) []Candidate {
	if len(low) == 0 || residualW <= 0 || residualV <= 0 {
		return nil
	}
	if len(low) <= exhaustiveLimit {
		return exhaustive(fl, low, baseW, baseV, residualW, residualV, weights)
	}
	return greedyTwoOpt(fl, low, baseW, baseV, residualW, residualV, weights)
}

func subsetScore(fl *model.Flight, subset []Candidate, baseW, baseV float64, weights config.KnapsackWeights) float64 {
	var density, prio, dwell, w, v float64
	for _, c := range subset {
		density += c.Cargo.RevenueDensity()
		prio += float64(c.Cargo.Priority.Score())
		dwell += c.DwellHours
		w += c.Cargo.WeightKg
		v += c.Cargo.VolumeM3
	}
	util := utilizationScore((baseW+w)/fl.WeightCapacityKg, (baseV+v)/fl.VolumeCapacityM3)
	return weights.Density*density + weights.Priority*prio + weights.Utilization*util - weights.Dwell*dwell
}

// utilizationScore peaks at 1.0 inside the 60-90% band of the tighter axis
// and falls off linearly outside it.
func utilizationScore(weightFrac, volumeFrac float64) float64 {
	u := weightFrac
	if volumeFrac > u {
		u = volumeFrac
	}
	switch {
	case u < 0.6:
		return u / 0.6
	case u <= 0.9:
		return 1.0
	default:
		s := (1.0 - u) / 0.1
		if s < 0 {
			return 0
		}
		return s
	}
}

// exhaustive enumerates every subset. Candidates arrive sorted by cargo
// ID and masks are visited in ascending order, so equal scores resolve to
// the subset containing the lexicographically earliest IDs.
func exhaustive(fl *model.Flight, low []Candidate, baseW, baseV, residualW, residualV float64, weights config.KnapsackWeights) []Candidate {
	bestScore := subsetScore(fl, nil, baseW, baseV, weights)
	bestMask := 0
	for mask := 1; mask < 1<<len(low); mask++ {
		var w, v float64
		for i, c := range low {
			if mask&(1<<i) != 0 {
				w += c.Cargo.WeightKg
				v += c.Cargo.VolumeM3
			}
		}
		if w > residualW || v > residualV {
			continue
		}
		subset := make([]Candidate, 0, len(low))
		for i, c := range low {
			if mask&(1<<i) != 0 {
				subset = append(subset, c)
			}
		}
		if score := subsetScore(fl, subset, baseW, baseV, weights); score > bestScore {
			bestScore = score
			bestMask = mask
		}
	}

	var chosen []Candidate
	for i, c := range low {
		if bestMask&(1<<i) != 0 {
			chosen = append(chosen, c)
		}
	}
	return chosen
}

// greedyTwoOpt seeds a solution by descending revenue density, then swaps
// single in/out pairs while any swap improves the score.
func greedyTwoOpt(fl *model.Flight, low []Candidate, baseW, baseV, residualW, residualV float64, weights config.KnapsackWeights) []Candidate {
	order := make([]Candidate, len(low))
	copy(order, low)
	sort.Slice(order, func(i, j int) bool {
		di, dj := order[i].Cargo.RevenueDensity(), order[j].Cargo.RevenueDensity()
		if di != dj {
			return di > dj
		}
		return order[i].Cargo.ID < order[j].Cargo.ID
	})

	taken := make(map[string]bool, len(order))
	var w, v float64
	for _, c := range order {
		if w+c.Cargo.WeightKg <= residualW && v+c.Cargo.VolumeM3 <= residualV {
			taken[c.Cargo.ID] = true
			w += c.Cargo.WeightKg
			v += c.Cargo.VolumeM3
		}
	}

	current := pick(low, taken)
	currentScore := subsetScore(fl, current, baseW, baseV, weights)
	for improved := true; improved; {
		improved = false
		for _, out := range low {
			if !taken[out.Cargo.ID] {
				continue
			}
			for _, in := range low {
				if taken[in.Cargo.ID] {
					continue
				}
				nw := w - out.Cargo.WeightKg + in.Cargo.WeightKg
				nv := v - out.Cargo.VolumeM3 + in.Cargo.VolumeM3
				if nw > residualW || nv > residualV {
					continue
				}
				taken[out.Cargo.ID] = false
				taken[in.Cargo.ID] = true
				trial := pick(low, taken)
				if score := subsetScore(fl, trial, baseW, baseV, weights); score > currentScore {
					current, currentScore = trial, score
					w, v = nw, nv
					improved = true
					break
				}
				taken[out.Cargo.ID] = true
				taken[in.Cargo.ID] = false
			}
			if improved {
				break
			}
		}
	}
	return current
}

func pick(low []Candidate, taken map[string]bool) []Candidate {
	var subset []Candidate
	for _, c := range low {
		if taken[c.Cargo.ID] {
			subset = append(subset, c)
		}
	}
	return subset
}
