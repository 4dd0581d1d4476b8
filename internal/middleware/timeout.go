package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds handler execution when no timeout is configured
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"success":false,"error":"Service Unavailable","message":"Request timed out"}`

// Timeout answers 503 with a JSON envelope when a handler runs past timeout.
// http.TimeoutHandler also cancels the request context at the deadline.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only reaches the client on timeout; a finished handler's headers replace it
			w.Header().Set("Content-Type", "application/json")
			th.ServeHTTP(w, r)
		})
	}
}
