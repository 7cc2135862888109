// Package route enumerates and scores feasible itineraries through the
// temporal flight graph.
package route

import (
	"sort"

	"github.com/tanmaybisen31/Cargo-Flight-Management/internal/model"
)

type ruleKey struct {
	origin      string
	destination string
	connection  string
}

// RuleIndex resolves the connection rule for a transfer. Lookup order is
// exact (origin, destination, airport), then the wildcard row for the pair,
// then the built-in defaults.
type RuleIndex struct {
	rules map[ruleKey]model.ConnectionRule
}

func NewRuleIndex(rules []model.ConnectionRule) *RuleIndex {
	idx := &RuleIndex{rules: make(map[ruleKey]model.ConnectionRule, len(rules))}
	for _, r := range rules {
		idx.rules[ruleKey{r.Origin, r.Destination, r.ConnectionAirport}] = r
	}
	return idx
}

// Lookup returns the rule governing a connection at airport for cargo
// flowing origin to destination. Always returns a usable rule.
func (idx *RuleIndex) Lookup(origin, destination, airport string) model.ConnectionRule {
	if r, ok := idx.rules[ruleKey{origin, destination, airport}]; ok {
		return r
	}
	if r, ok := idx.rules[ruleKey{origin, destination, ""}]; ok {
		return r
	}
	return model.ConnectionRule{
		Origin:            origin,
		Destination:       destination,
		ConnectionAirport: airport,
		MinConnectMinutes: model.DefaultMinConnectMinutes,
		MaxConnectMinutes: model.DefaultMaxConnectMinutes,
		HandlingFee:       0,
	}
}

// FlightsByOrigin indexes flights by departure airport, each bucket sorted
// by departure time then flight ID so traversal order is reproducible.
func FlightsByOrigin(flights map[string]*model.Flight) map[string][]*model.Flight {
	byOrigin := make(map[string][]*model.Flight)
	for _, fl := range flights {
		byOrigin[fl.Origin] = append(byOrigin[fl.Origin], fl)
	}
	for origin := range byOrigin {
		bucket := byOrigin[origin]
		sort.Slice(bucket, func(i, j int) bool {
			if !bucket[i].Departure.Equal(bucket[j].Departure) {
				return bucket[i].Departure.Before(bucket[j].Departure)
			}
			return bucket[i].ID < bucket[j].ID
		})
	}
	return byOrigin
}
