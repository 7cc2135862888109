package route

import (
	"sort"
	"time"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

// Enumerator produces the per-cargo route catalog by depth-first search
// over the flight graph. The graph is a DAG under departure-time ordering,
// so no visited set is needed; the leg cap and transit cap bound the walk.
type Enumerator struct {
	byOrigin     map[string][]*model.Flight
	rules        *RuleIndex
	maxLegs      int
	denialFactor float64
}

func NewEnumerator(flights map[string]*model.Flight, rules *RuleIndex, maxLegs int, denialFactor float64) *Enumerator {
	return &Enumerator{
		byOrigin:     FlightsByOrigin(flights),
		rules:        rules,
		maxLegs:      maxLegs,
		denialFactor: denialFactor,
	}
}

// Enumerate returns the ordered route options for one cargo. On-time
// itineraries come first, ordered by ascending operating+handling cost with
// flight sequence as the tie-break. Guaranteed-priority cargo with no
// on-time itinerary gets the shortest-elapsed late itinerary appended so it
// stays routable at an SLA cost. The result is never empty: when nothing is
// feasible the single DENIED option is returned.
func (e *Enumerator) Enumerate(cg *model.Cargo) []*model.RouteOption {
	var found [][]*model.Flight
	path := make([]*model.Flight, 0, e.maxLegs)
	e.walk(cg, cg.Origin, time.Time{}, path, &found)

	var onTime, late []*model.RouteOption
	for _, flights := range found {
		opt := buildOption(cg, flights, e.rules)
		if opt.OnTime {
			onTime = append(onTime, opt)
		} else {
			late = append(late, opt)
		}
	}

	sort.Slice(onTime, func(i, j int) bool {
		ci := onTime[i].OperatingCost + onTime[i].HandlingCost
		cj := onTime[j].OperatingCost + onTime[j].HandlingCost
		if ci != cj {
			return ci < cj
		}
		return sequenceKey(onTime[i]) < sequenceKey(onTime[j])
	})

	options := onTime
	if len(onTime) == 0 && cg.Priority.Guaranteed() && len(late) > 0 {
		sort.Slice(late, func(i, j int) bool {
			if late[i].TransitHours != late[j].TransitHours {
				return late[i].TransitHours < late[j].TransitHours
			}
			return sequenceKey(late[i]) < sequenceKey(late[j])
		})
		options = append(options, late[0])
	}
	if len(options) == 0 {
		options = append(options, DeniedOption(cg, e.denialFactor))
	}
	return options
}

// walk extends the current partial itinerary from airport at.
func (e *Enumerator) walk(cg *model.Cargo, at string, firstDep time.Time, path []*model.Flight, found *[][]*model.Flight) {
	if len(path) == e.maxLegs {
		return
	}
	for _, fl := range e.byOrigin[at] {
		if len(path) == 0 {
			if fl.Departure.Before(cg.ReadyTime) {
				continue
			}
		} else {
			prev := path[len(path)-1]
			rule := e.rules.Lookup(cg.Origin, cg.Destination, prev.Destination)
			dwell := fl.Departure.Sub(prev.Arrival)
			if dwell < time.Duration(rule.MinConnectMinutes)*time.Minute {
				continue
			}
			if dwell > time.Duration(rule.MaxConnectMinutes)*time.Minute {
				continue
			}
		}
		start := firstDep
		if len(path) == 0 {
			start = fl.Departure
		}
		if fl.Arrival.Sub(start).Hours() > cg.MaxTransitHours {
			continue
		}

		path = append(path, fl)
		if fl.Destination == cg.Destination {
			itinerary := make([]*model.Flight, len(path))
			copy(itinerary, path)
			*found = append(*found, itinerary)
		} else {
			e.walk(cg, fl.Destination, start, path, found)
		}
		path = path[:len(path)-1]
	}
}

// Catalog is the per-run arena of route options, with cargo in canonical
// (ascending ID) order so GA genes address options deterministically.
type Catalog struct {
	CargoIDs []string
	Cargo    map[string]*model.Cargo
	Options  map[string][]*model.RouteOption
}

// BuildCatalog enumerates routes for every cargo.
func BuildCatalog(cargo map[string]*model.Cargo, flights map[string]*model.Flight, rules []model.ConnectionRule, maxLegs int, denialFactor float64) *Catalog {
	enum := NewEnumerator(flights, NewRuleIndex(rules), maxLegs, denialFactor)
	ids := make([]string, 0, len(cargo))
	for id := range cargo {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cat := &Catalog{
		CargoIDs: ids,
		Cargo:    cargo,
		Options:  make(map[string][]*model.RouteOption, len(cargo)),
	}
	for _, id := range ids {
		cat.Options[id] = enum.Enumerate(cargo[id])
	}
	return cat
}

// OnTimeCount reports how many of a cargo's options arrive on time.
func (c *Catalog) OnTimeCount(cargoID string) int {
	n := 0
	for _, opt := range c.Options[cargoID] {
		if opt.OnTime {
			n++
		}
	}
	return n
}
