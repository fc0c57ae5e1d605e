// Package ranking computes product rank scores.
//
// Two composite scores are produced: a "top" score built from quality and
// value signals carried by the product itself, and a "trending" score built
// from externally tracked engagement plus a freshness bonus for recently
// first-seen products. Scorers are pure functions over their inputs; sorts
// return new slices and never mutate their arguments.
package ranking

// Weights holds the tunable scoring constants. Passing Weights explicitly
// (instead of mutating package globals) lets tests and experiments override
// individual factors without shared state.
type Weights struct {
	// Top score factors
	TopRating   float64 // linear, rating is bounded 0-5
	TopOrders   float64 // applied to ln(orders+1) to compress the long tail
	TopDiscount float64 // linear, secondary value signal

	// Trending score factors
	TrendingClicks   float64
	TrendingSaves    float64
	TrendingDiscount float64
	TrendingFresh    float64

	// Freshness model
	MaxFreshness float64 // freshness score for a product first seen right now
	DecayDays    float64 // days until the freshness bonus reaches zero
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		TopRating:   2.0,
		TopOrders:   1.5,
		TopDiscount: 0.5,

		TrendingClicks:   3.0,
		TrendingSaves:    2.0,
		TrendingDiscount: 0.3,
		TrendingFresh:    1.5,

		MaxFreshness: 10,
		DecayDays:    7,
	}
}
