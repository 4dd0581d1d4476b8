package events

import (
	"context"
)

// Publisher is the interface for change-event sinks
type Publisher interface {
	// Publish sends an event. Callers treat failures as non-fatal.
	Publish(ctx context.Context, event *Event) error

	// Close closes the publisher connection
	Close() error

	// HealthCheck verifies the publisher connection is healthy
	HealthCheck(ctx context.Context) error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event
func (NopPublisher) Publish(context.Context, *Event) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }

// HealthCheck always succeeds
func (NopPublisher) HealthCheck(context.Context) error { return nil }

var _ Publisher = NopPublisher{}
