package models

import (
	"time"
)

// Priority represents how urgent a todo is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities returns all allowed priorities in ascending order of urgency
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent}
}

// IsValid reports whether p is one of the allowed priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Todo represents a todo item
type Todo struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Done      bool       `json:"done"`
	Priority  Priority   `json:"priority"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy of the todo
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		c.UpdatedAt = &u
	}
	return &c
}

// TodoPatch holds the fields of an update. Nil fields are left untouched.
type TodoPatch struct {
	Title    *string
	Done     *bool
	Priority *Priority
}

// TodoFilter narrows a listing. Filters are applied in order: status, search, limit.
type TodoFilter struct {
	// Status selects done (true) or pending (false) items; nil selects both
	Status *bool
	// Search is a case-insensitive substring match on the title
	Search string
	// Limit truncates the result to the first N items when positive
	Limit int
}
