package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of change that happened to the collection
type EventType string

const (
	// EventTodoCreated is emitted after a todo is created
	EventTodoCreated EventType = "todo.created"
	// EventTodoUpdated is emitted after a todo is replaced or patched
	EventTodoUpdated EventType = "todo.updated"
	// EventTodoDeleted is emitted after a todo is removed
	EventTodoDeleted EventType = "todo.deleted"
	// EventTodosCompletedAll is emitted after a bulk complete
	EventTodosCompletedAll EventType = "todos.completed_all"
	// EventTodosClearedCompleted is emitted after completed todos are cleared
	EventTodosClearedCompleted EventType = "todos.cleared_completed"
)

// Event is a change notification
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       EventType      `json:"type"`
	TodoID     *int           `json:"todoId,omitempty"` // Set for single-item events
	Data       any            `json:"data,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, todoID *int, data any) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		TodoID:     todoID,
		Data:       data,
		Metadata:   make(map[string]any),
		OccurredAt: time.Now().UTC(),
	}
}

// RoutingKey returns the routing key the event is published under
func (e *Event) RoutingKey() string {
	return string(e.Type)
}
