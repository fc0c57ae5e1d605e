package marketplace

import (
	"math/rand"
	"time"
)

// Attempt delays for retried API calls. The upstream rate-limits bursty
// clients, so delays grow quickly.
var attemptDelays = []time.Duration{
	500 * time.Millisecond,
	2 * time.Second,
	5 * time.Second,
}

const (
	// MaxAttempts is the maximum number of tries per search call.
	MaxAttempts = 4

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2 // ±20%
)

// NextAttemptDelay calculates the delay before the next retry with jitter.
// failedAttempts is 0-indexed (after the first failure, failedAttempts = 0).
func NextAttemptDelay(failedAttempts int) time.Duration {
	if failedAttempts < 0 {
		failedAttempts = 0
	}
	if failedAttempts >= len(attemptDelays) {
		failedAttempts = len(attemptDelays) - 1
	}

	base := attemptDelays[failedAttempts]

	// ±20% jitter to avoid synchronized retries across workers
	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}
