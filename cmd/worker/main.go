package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/todo-api/internal/config"
	"github.com/benvon/todo-api/internal/events"
	"github.com/benvon/todo-api/internal/logger"
	"go.uber.org/zap"
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

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("RABBITMQ_URL is required for the event worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := events.ConnectConsumerWithRetry(ctx, cfg.RabbitMQURL, 10, 2*time.Second, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq", zap.Error(err))
		}
	}()

	zapLogger.Info("worker_started",
		zap.String("queue", events.DefaultQueueName),
		zap.Int("prefetch", cfg.EventsPrefetch),
	)

	err = consumer.Run(ctx, cfg.EventsPrefetch, auditHandler(zapLogger))
	if err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		return
	}

	zapLogger.Info("worker_stopped")
}
