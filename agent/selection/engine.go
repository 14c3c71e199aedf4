// Package selection ranks candidate providers and picks a dispatch target.
// The engine is pure: same candidates in, same selection out.
package selection

import (
	"math"
	"sort"

	contractx "github.com/nattavee/homecall/agent/contract"
	statex "github.com/nattavee/homecall/agent/state"
)

const (
	preferredRating = 4.0
	minutesPerMile  = 2.5
	costLowFactor   = 1.0
	costHighFactor  = 2.0
)

// Recommendation is one ranked provider plus derived estimates.
type Recommendation struct {
	Provider contractx.ProviderOption `json:"provider"`
	ETAMins  int                      `json:"eta_minutes"`
	CostLow  float64                  `json:"cost_low"`
	CostHigh float64                  `json:"cost_high"`
}

// Selection is the engine output. Best is nil exactly when State is
// no_providers.
type Selection struct {
	State        statex.DispatchState `json:"state"`
	Best         *Recommendation      `json:"best,omitempty"`
	Alternatives []Recommendation     `json:"alternatives,omitempty"`
}

// Select filters out unavailable providers and ranks the rest by rating band
// (>= 4.0 first), rating, distance, then review count. Unavailable providers
// are excluded outright, never merely deprioritized. An empty candidate set is
// a legitimate terminal state, not an error.
func Select(options []contractx.ProviderOption) Selection {
	candidates := make([]contractx.ProviderOption, 0, len(options))
	for _, opt := range options {
		if opt.Available {
			candidates = append(candidates, opt)
		}
	}
	if len(candidates) == 0 {
		return Selection{State: statex.DispatchNoProviders}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rankLess(candidates[i], candidates[j])
	})

	recs := make([]Recommendation, len(candidates))
	for i, c := range candidates {
		recs[i] = recommend(c)
	}

	sel := Selection{
		State: statex.DispatchRecommending,
		Best:  &recs[0],
	}
	if len(recs) > 1 {
		sel.State = statex.DispatchMultipleOptions
		sel.Alternatives = recs[1:]
	}
	return sel
}

func rankLess(a, b contractx.ProviderOption) bool {
	aPreferred := a.Rating >= preferredRating
	bPreferred := b.Rating >= preferredRating
	if aPreferred != bPreferred {
		return aPreferred
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.DistanceMiles != b.DistanceMiles {
		return a.DistanceMiles < b.DistanceMiles
	}
	return a.ReviewCount > b.ReviewCount
}

func recommend(p contractx.ProviderOption) Recommendation {
	return Recommendation{
		Provider: p,
		ETAMins:  etaMinutes(p),
		CostLow:  costLowFactor*p.HourlyRate + p.CallOutFee,
		CostHigh: costHighFactor*p.HourlyRate + p.CallOutFee,
	}
}

// etaMinutes uses the source ETA when present, otherwise a fixed linear
// estimate from distance. The derivation is deterministic and monotonic in
// distance.
func etaMinutes(p contractx.ProviderOption) int {
	if p.ETAMinutes > 0 {
		return p.ETAMinutes
	}
	eta := int(math.Ceil(p.DistanceMiles * minutesPerMile))
	if eta < 1 {
		eta = 1
	}
	return eta
}
