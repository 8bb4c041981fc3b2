package middleware

import (
	"net/http"

	"github.com/notifyhub/event-fanout/internal/ratelimiter"
)

// RateLimit rejects requests with 429 once the inbound limiter is exhausted.
// Applied only to the dispatch-creating route; reads are not limited.
func RateLimit(limiter *ratelimiter.APILimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded, try again later"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
