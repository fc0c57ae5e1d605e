package ranking

import "time"

// FreshnessAt computes the recency bonus for a product first seen at
// firstSeenAt, evaluated at the given instant. The bonus decays linearly
// from w.MaxFreshness down to zero over w.DecayDays days; products first
// seen at or beyond the decay horizon, or with no recorded first sighting,
// get no bonus.
//
// For a fixed firstSeenAt the result is monotonically non-increasing as
// now advances.
func FreshnessAt(w Weights, firstSeenAt *time.Time, now time.Time) float64 {
	if firstSeenAt == nil {
		return 0
	}

	daysSince := now.Sub(*firstSeenAt).Hours() / 24

	if daysSince >= w.DecayDays {
		return 0
	}
	if daysSince < 0 {
		// Clock skew between the ingest host and the scorer; clamp rather
		// than hand out more than the maximum.
		return w.MaxFreshness
	}

	return w.MaxFreshness * (1 - daysSince/w.DecayDays)
}

// Freshness evaluates FreshnessAt against the wall clock.
func Freshness(w Weights, firstSeenAt *time.Time) float64 {
	return FreshnessAt(w, firstSeenAt, time.Now())
}
