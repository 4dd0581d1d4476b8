package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"
)

const healthCheckTimeout = 5 * time.Second

// TodoCounter is the part of the store the health check reads
type TodoCounter interface {
	Count(ctx context.Context) (int, error)
}

// DependencyCheck reports whether an external dependency is reachable
type DependencyCheck func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	counter   TodoCounter
	startedAt time.Time
	checks    map[string]DependencyCheck
	now       func() time.Time
}

// HealthOption configures a HealthChecker
type HealthOption func(*HealthChecker)

// WithDependencyCheck adds a named check run in extended mode
func WithDependencyCheck(name string, check DependencyCheck) HealthOption {
	return func(h *HealthChecker) {
		if check != nil {
			h.checks[name] = check
		}
	}
}

// WithHealthClock overrides the clock used for uptime
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthChecker) {
		h.now = now
	}
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(counter TodoCounter, opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{
		counter: counter,
		checks:  make(map[string]DependencyCheck),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startedAt = h.now()
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Success   bool              `json:"success"`
	Status    string            `json:"status"`
	Uptime    float64           `json:"uptime"` // seconds
	Count     int               `json:"count"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// RegisterRoutes registers the health route
func (h *HealthChecker) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
}

// HealthCheck handles the /health endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	response := HealthResponse{
		Success:   true,
		Status:    "healthy",
		Uptime:    math.Round(now.Sub(h.startedAt).Seconds()*1000) / 1000,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	countErr := error(nil)
	if h.counter != nil {
		response.Count, countErr = h.counter.Count(r.Context())
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks := make(map[string]string, len(h.checks)+1)

		if countErr != nil {
			checks["store"] = "unhealthy: " + countErr.Error()
			response.Status = "unhealthy"
		} else {
			checks["store"] = "healthy"
		}

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := h.checks[name](ctx)
			cancel()

			if err != nil {
				checks[name] = "unhealthy: " + err.Error()
				response.Status = "unhealthy"
				continue
			}
			checks[name] = "healthy"
		}

		response.Checks = checks
		if response.Status == "unhealthy" {
			response.Success = false
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}
