// Package backoff computes exponential retry delays with jitter for the
// dispatcher's provider-call retry loop.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy parameterizes an exponential-backoff curve: delay grows from
// InitialMs by Factor per attempt, randomized by Jitter, capped at MaxMs.
type Policy struct {
	// InitialMs is the delay before the first retry, in milliseconds.
	InitialMs float64
	// MaxMs caps the computed delay, in milliseconds.
	MaxMs float64
	// Factor multiplies the delay on each subsequent attempt.
	Factor float64
	// Jitter is the fraction (0.0-1.0) of the base delay added as
	// randomization, so concurrent retriers don't all wake at once.
	Jitter float64
}

// Compute returns the delay for the given attempt (1-indexed).
func (p Policy) Compute(attempt int) time.Duration {
	return p.ComputeWithRand(attempt, rand.Float64()) // #nosec G404 -- jitter does not require cryptographic randomness
}

// ComputeWithRand computes the delay using a caller-supplied random value
// in [0.0, 1.0), so tests can assert exact delays deterministically.
func (p Policy) ComputeWithRand(attempt int, randomValue float64) time.Duration {
	exp := math.Max(float64(attempt-1), 0)
	base := p.InitialMs * math.Pow(p.Factor, exp)
	jitterAmount := base * p.Jitter * randomValue
	total := math.Min(p.MaxMs, base+jitterAmount)
	return time.Duration(math.Round(total)) * time.Millisecond
}

// DefaultPolicy balances responsiveness and backpressure for ordinary
// provider retries: 100ms initial, 30s cap, factor 2, 10% jitter.
func DefaultPolicy() Policy {
	return Policy{InitialMs: 100, MaxMs: 30000, Factor: 2, Jitter: 0.1}
}

// AggressivePolicy retries quickly with a low cap, for calls where a
// fast failure is preferable to a long stall.
func AggressivePolicy() Policy {
	return Policy{InitialMs: 50, MaxMs: 5000, Factor: 1.5, Jitter: 0.05}
}

// ConservativePolicy backs off slowly with a high cap, for calls against
// a backend known to need longer recovery windows.
func ConservativePolicy() Policy {
	return Policy{InitialMs: 500, MaxMs: 60000, Factor: 2.5, Jitter: 0.2}
}
