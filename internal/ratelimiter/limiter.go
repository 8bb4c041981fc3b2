package ratelimiter

import (
	"golang.org/x/time/rate"
)

// APILimiter is a single token bucket limiter applied to inbound dispatch
// requests. It bounds how many fan-outs callers can start per second;
// outgoing calls within a run are intentionally not limited — the dispatch
// loop is strictly sequential by contract.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type APILimiter struct {
	limiter *rate.Limiter
}

// New creates an APILimiter allowing ratePerSec dispatch requests per second.
func New(ratePerSec int) *APILimiter {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec // burst == rate: prevents any "saved up" burst above the limit

	return &APILimiter{limiter: rate.NewLimiter(r, burst)}
}

// Allow reports whether a request may proceed right now.
// Called by the rate-limit middleware; rejected requests get 429 immediately
// instead of queueing.
func (l *APILimiter) Allow() bool {
	return l.limiter.Allow()
}
