package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/todo-api/internal/events"
	logpkg "github.com/benvon/todo-api/internal/logger"
	"github.com/benvon/todo-api/internal/models"
	"github.com/benvon/todo-api/internal/request"
	"github.com/benvon/todo-api/internal/store"
	"github.com/benvon/todo-api/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// StatusCompleted is the status query value selecting done todos. Any other value selects pending todos.
	StatusCompleted = "completed"

	publishTimeout = 2 * time.Second
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	repo      store.TodoRepositoryInterface
	publisher events.Publisher
	logger    *zap.Logger
}

// TodoHandlerOption configures a TodoHandler
type TodoHandlerOption func(*TodoHandler)

// WithEventPublisher sets the publisher that receives change events
func WithEventPublisher(p events.Publisher) TodoHandlerOption {
	return func(h *TodoHandler) {
		if p != nil {
			h.publisher = p
		}
	}
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(repo store.TodoRepositoryInterface, logger *zap.Logger, opts ...TodoHandlerOption) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &TodoHandler{
		repo:      repo,
		publisher: events.NopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers todo and stats routes on the given router.
// Bulk routes are registered before /todos/{id} so their literal paths win.
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/todos", h.ListTodos).Methods(http.MethodGet)
	r.HandleFunc("/todos", h.CreateTodo).Methods(http.MethodPost)
	r.HandleFunc("/todos/complete-all", h.CompleteAll).Methods(http.MethodPatch)
	r.HandleFunc("/todos/completed", h.ClearCompleted).Methods(http.MethodDelete)
	r.HandleFunc("/todos/{id}", h.GetTodo).Methods(http.MethodGet)
	r.HandleFunc("/todos/{id}", h.ReplaceTodo).Methods(http.MethodPut)
	r.HandleFunc("/todos/{id}", h.PatchTodo).Methods(http.MethodPatch)
	r.HandleFunc("/todos/{id}", h.DeleteTodo).Methods(http.MethodDelete)
	r.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	r.HandleFunc("/stats/detailed", h.DetailedStats).Methods(http.MethodGet)
}

// ListTodos lists todos, optionally narrowed by status, search and limit
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.TodoFilter{Search: q.Get("search")}
	if s := q.Get("status"); s != "" {
		done := s == StatusCompleted
		filter.Status = &done
	}
	if l := q.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}

	todos, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, "failed_to_list_todos", err)
		return
	}

	respondJSONWithFields(w, http.StatusOK, todos, map[string]any{
		"count": len(todos),
		"total": total,
	})
}

// GetTodo retrieves a todo by ID
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTodoID(r)
	if !ok {
		respondTodoNotFound(w)
		return
	}

	todo, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			respondTodoNotFound(w)
			return
		}
		h.internalError(w, r, "failed_to_get_todo", err)
		return
	}

	respondJSON(w, http.StatusOK, todo)
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var input validation.TodoInput
	if err := decodeJSONBody(r, &input); err != nil {
		respondDecodeError(w, err)
		return
	}

	if violations := validation.ValidateTodoInput(&input, true); len(violations) > 0 {
		respondValidationError(w, violations)
		return
	}

	done, _ := input.Done.(bool)
	priority := models.PriorityNormal
	if input.Priority != nil {
		priority = models.Priority(*input.Priority)
	}

	todo, err := h.repo.Create(r.Context(), validation.SanitizeTitle(*input.Title), done, priority)
	if err != nil {
		h.internalError(w, r, "failed_to_create_todo", err)
		return
	}

	h.logger.Info("todo_created", zap.Int("todo_id", todo.ID), zap.String("request_id", request.RequestIDFromContext(r)))
	h.publish(r, events.NewEvent(events.EventTodoCreated, &todo.ID, todo))

	respondJSON(w, http.StatusCreated, todo)
}

// ReplaceTodo handles PUT: title is required, done and priority keep their values when absent
func (h *TodoHandler) ReplaceTodo(w http.ResponseWriter, r *http.Request) {
	h.updateTodo(w, r, true)
}

// PatchTodo handles PATCH: every field is optional
func (h *TodoHandler) PatchTodo(w http.ResponseWriter, r *http.Request) {
	h.updateTodo(w, r, false)
}

func (h *TodoHandler) updateTodo(w http.ResponseWriter, r *http.Request, requireTitle bool) {
	var input validation.TodoInput
	if err := decodeJSONBody(r, &input); err != nil {
		respondDecodeError(w, err)
		return
	}

	if violations := validation.ValidateTodoInput(&input, requireTitle); len(violations) > 0 {
		respondValidationError(w, violations)
		return
	}

	id, ok := parseTodoID(r)
	if !ok {
		respondTodoNotFound(w)
		return
	}

	var patch models.TodoPatch
	if input.Title != nil {
		title := validation.SanitizeTitle(*input.Title)
		patch.Title = &title
	}
	if done, ok := input.Done.(bool); ok {
		patch.Done = &done
	}
	if input.Priority != nil {
		priority := models.Priority(*input.Priority)
		patch.Priority = &priority
	}

	todo, err := h.repo.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			respondTodoNotFound(w)
			return
		}
		h.internalError(w, r, "failed_to_update_todo", err)
		return
	}

	h.logger.Info("todo_updated", zap.Int("todo_id", todo.ID), zap.String("request_id", request.RequestIDFromContext(r)))
	h.publish(r, events.NewEvent(events.EventTodoUpdated, &todo.ID, todo))

	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo deletes a todo and returns the removed record
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTodoID(r)
	if !ok {
		respondTodoNotFound(w)
		return
	}

	todo, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrTodoNotFound) {
			respondTodoNotFound(w)
			return
		}
		h.internalError(w, r, "failed_to_delete_todo", err)
		return
	}

	h.logger.Info("todo_deleted", zap.Int("todo_id", todo.ID), zap.String("request_id", request.RequestIDFromContext(r)))
	h.publish(r, events.NewEvent(events.EventTodoDeleted, &todo.ID, todo))

	respondJSONWithFields(w, http.StatusOK, todo, map[string]any{"message": "Todo deleted"})
}

// CompleteAll marks every pending todo as done
func (h *TodoHandler) CompleteAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.CompleteAll(r.Context())
	if err != nil {
		h.internalError(w, r, "failed_to_complete_all", err)
		return
	}

	h.logger.Info("todos_completed_all", zap.Int("count", count))
	h.publish(r, events.NewEvent(events.EventTodosCompletedAll, nil, map[string]int{"count": count}))

	respondJSONWithFields(w, http.StatusOK, nil, map[string]any{
		"message": fmt.Sprintf("Marked %d todos as done", count),
		"count":   count,
	})
}

// ClearCompleted removes every done todo
func (h *TodoHandler) ClearCompleted(w http.ResponseWriter, r *http.Request) {
	removed, remaining, err := h.repo.ClearCompleted(r.Context())
	if err != nil {
		h.internalError(w, r, "failed_to_clear_completed", err)
		return
	}

	h.logger.Info("todos_cleared_completed", zap.Int("removed", removed), zap.Int("remaining", remaining))
	h.publish(r, events.NewEvent(events.EventTodosClearedCompleted, nil, map[string]int{
		"removed":   removed,
		"remaining": remaining,
	}))

	respondJSONWithFields(w, http.StatusOK, nil, map[string]any{
		"message":   fmt.Sprintf("Removed %d completed todos", removed),
		"removed":   removed,
		"remaining": remaining,
	})
}

// Stats returns total, completed and pending counts with the completion rate
func (h *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		h.internalError(w, r, "failed_to_get_stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// DetailedStats adds the per-priority breakdown and recent activity to Stats
func (h *TodoHandler) DetailedStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.DetailedStats(r.Context())
	if err != nil {
		h.internalError(w, r, "failed_to_get_detailed_stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// publish sends an event without failing the request; errors are only logged
func (h *TodoHandler) publish(r *http.Request, event *events.Event) {
	if id := request.RequestIDFromContext(r); id != "" {
		event.Metadata["request_id"] = id
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn("event_publish_failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}

// internalError logs err and responds with the generic 500 envelope
func (h *TodoHandler) internalError(w http.ResponseWriter, r *http.Request, event string, err error) {
	h.logger.Error(event,
		zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		zap.String("request_id", request.RequestIDFromContext(r)),
		zap.String("error", logpkg.SanitizeError(err)),
	)
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Internal server error")
}

func respondTodoNotFound(w http.ResponseWriter) {
	respondJSONError(w, http.StatusNotFound, "Not Found", "Todo not found")
}

func respondValidationError(w http.ResponseWriter, violations []string) {
	respondJSONErrorDetails(w, http.StatusBadRequest, "Validation Failed", violations[0], violations)
}
