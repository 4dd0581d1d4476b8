package main

import (
	"fmt"
	"net/http"

	"github.com/benvon/todo-api/internal/config"
	"github.com/benvon/todo-api/internal/handlers"
	"github.com/benvon/todo-api/internal/middleware"
	"github.com/benvon/todo-api/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// routerDeps holds everything the router needs from main
type routerDeps struct {
	cfg          *config.Config
	logger       *zap.Logger
	todos        *handlers.TodoHandler
	health       *handlers.HealthChecker
	openAPI      *handlers.OpenAPIHandler
	redisLimiter *middleware.RedisRateLimiter
	tracing      bool
}

// newRouter wires routes and middleware. Middleware registered first is the outermost wrapper.
func newRouter(d routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()
	corsMW := middleware.CORS(d.cfg.AllowedOrigins(), d.logger)

	if d.tracing {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
		d.logger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(corsMW)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.MaxRequestSize(d.cfg.MaxRequestBytes, d.logger))
	r.Use(middleware.ContentType(d.logger))
	r.Use(middleware.Timeout(d.cfg.RequestTimeout))

	if d.cfg.RateLimit != "" {
		rateLimitMW, err := middleware.RateLimit(d.cfg.RateLimit, d.redisLimiter, d.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		r.Use(rateLimitMW)
		d.logger.Info("rate_limit_enabled",
			zap.String("rate", d.cfg.RateLimit),
			zap.Bool("redis_store", d.redisLimiter != nil),
		)
	}

	d.health.RegisterRoutes(r)
	d.openAPI.RegisterRoutes(r)
	d.todos.RegisterRoutes(r)

	// Preflight requests are answered by the CORS middleware; plain OPTIONS still gets a 204
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// mux does not run r.Use middleware for these two handlers
	notFound := middleware.Chain(handlers.NotFound(),
		middleware.SecurityHeaders(d.cfg.EnableHSTS),
		corsMW,
		middleware.RequestID,
		middleware.Logging(d.logger),
	)
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r, nil
}
