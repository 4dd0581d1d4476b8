package main

import (
	"context"

	"github.com/benvon/todo-api/internal/events"
	"go.uber.org/zap"
)

// auditHandler writes one structured log line per change event
func auditHandler(logger *zap.Logger) events.Handler {
	return func(_ context.Context, event *events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID.String()),
			zap.String("event_type", string(event.Type)),
			zap.Time("occurred_at", event.OccurredAt),
		}
		if event.TodoID != nil {
			fields = append(fields, zap.Int("todo_id", *event.TodoID))
		}
		if event.Data != nil {
			fields = append(fields, zap.Any("data", event.Data))
		}
		if requestID, ok := event.Metadata["request_id"].(string); ok {
			fields = append(fields, zap.String("request_id", requestID))
		}

		logger.Info("todo_event", fields...)
		return nil
	}
}
