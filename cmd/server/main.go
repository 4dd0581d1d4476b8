package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/todo-api/internal/config"
	"github.com/benvon/todo-api/internal/events"
	"github.com/benvon/todo-api/internal/handlers"
	"github.com/benvon/todo-api/internal/logger"
	"github.com/benvon/todo-api/internal/middleware"
	"github.com/benvon/todo-api/internal/store"
	"github.com/benvon/todo-api/internal/telemetry"
	"go.uber.org/zap"
)

const (
	rabbitMaxRetries   = 10
	rabbitInitialDelay = 2 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogFormat, cfg.ServerDebugMode || *debugFlag)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Error("server_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		stop()
		log.Fatalf("server failed: %v", err)
	}
}

// run serves until ctx is cancelled, then drains in-flight requests
func run(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	zapLogger.Info("starting_server",
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("allowed_origins", cfg.AllowedOrigins()),
		zap.Bool("seed_defaults", cfg.SeedDefaults),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracing, shutdownTracing := setupTracing(ctx, cfg, zapLogger)
	defer shutdownTracing()

	var storeOpts []store.Option
	if cfg.SeedDefaults {
		storeOpts = append(storeOpts, store.WithSeed(store.DefaultSeed(time.Now())...))
	}
	todoStore := store.NewTodoStore(storeOpts...)

	var healthOpts []handlers.HealthOption

	var redisLimiter *middleware.RedisRateLimiter
	if cfg.RedisURL != "" && cfg.RateLimit != "" {
		var err error
		redisLimiter, err = middleware.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer closeQuietly(zapLogger, "redis", redisLimiter.Close)
		healthOpts = append(healthOpts, handlers.WithDependencyCheck("redis", redisLimiter.Ping))
		zapLogger.Info("connected_to_redis")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := events.ConnectWithRetry(ctx, cfg.RabbitMQURL, rabbitMaxRetries, rabbitInitialDelay, zapLogger)
		if err != nil {
			return err
		}
		defer closeQuietly(zapLogger, "rabbitmq", rabbit.Close)
		publisher = rabbit
		healthOpts = append(healthOpts, handlers.WithDependencyCheck("rabbitmq", rabbit.HealthCheck))
		zapLogger.Info("connected_to_rabbitmq", zap.String("exchange", events.DefaultExchangeName))
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler()
	if err != nil {
		return fmt.Errorf("failed to load API description: %w", err)
	}

	r, err := newRouter(routerDeps{
		cfg:          cfg,
		logger:       zapLogger,
		todos:        handlers.NewTodoHandler(todoStore, zapLogger, handlers.WithEventPublisher(publisher)),
		health:       handlers.NewHealthChecker(todoStore, healthOpts...),
		openAPI:      openAPIHandler,
		redisLimiter: redisLimiter,
		tracing:      tracing,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
		// The timeout middleware answers before the connection deadline does
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_listening",
			zap.String("address", "http://localhost:"+cfg.ServerPort),
			zap.Strings("endpoints", handlers.Endpoints()),
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.ServerPort, err)
		}
		return nil
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	zapLogger.Info("server_exited")
	return nil
}

// setupTracing installs the OTLP tracer when enabled. Tracing problems never stop the server.
func setupTracing(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (bool, func()) {
	noop := func() {}
	if !cfg.OTELEnabled {
		return false, noop
	}
	if cfg.OTELEndpoint == "" {
		zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		return false, noop
	}

	tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return false, noop
	}
	zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))

	return true, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}
}

func closeQuietly(zapLogger *zap.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		zapLogger.Warn("failed_to_close_connection", zap.String("backend", name), zap.Error(err))
	}
}
