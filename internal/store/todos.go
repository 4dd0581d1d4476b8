package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/benvon/todo-api/internal/models"
)

// ErrTodoNotFound is returned when no todo has the requested ID
var ErrTodoNotFound = errors.New("todo not found")

// RecentActivityWindow is how far back DetailedStats looks for created or updated items
const RecentActivityWindow = 24 * time.Hour

// TodoStore holds the todo collection in process memory.
// All access goes through its methods; each method is a single atomic transformation.
type TodoStore struct {
	mu     sync.RWMutex
	todos  []*models.Todo
	nextID int
	now    func() time.Time
}

// Option configures a TodoStore
type Option func(*TodoStore)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *TodoStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed preloads the store with the given todos in order.
// The next assigned ID follows the highest seeded ID.
func WithSeed(todos ...*models.Todo) Option {
	return func(s *TodoStore) {
		for _, t := range todos {
			c := t.Clone()
			if c.Priority == "" {
				c.Priority = models.PriorityNormal
			}
			s.todos = append(s.todos, c)
			if c.ID >= s.nextID {
				s.nextID = c.ID + 1
			}
		}
	}
}

// DefaultSeed returns the two starter todos the service ships with
func DefaultSeed(now time.Time) []*models.Todo {
	return []*models.Todo{
		{ID: 1, Title: "Learn GitHub", Priority: models.PriorityNormal, CreatedAt: now},
		{ID: 2, Title: "Build a project", Priority: models.PriorityNormal, CreatedAt: now},
	}
}

// NewTodoStore creates a new in-memory todo store
func NewTodoStore(opts ...Option) *TodoStore {
	s := &TodoStore{
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the todos matching filter in insertion order, plus the unfiltered total
func (s *TodoStore) List(ctx context.Context, filter models.TodoFilter) ([]*models.Todo, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list todos: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := append([]*models.Todo(nil), s.todos...)

	if filter.Status != nil {
		results = narrow(results, func(t *models.Todo) bool { return t.Done == *filter.Status })
	}

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		results = narrow(results, func(t *models.Todo) bool {
			return strings.Contains(strings.ToLower(t.Title), search)
		})
	}

	if filter.Limit > 0 && filter.Limit < len(results) {
		results = results[:filter.Limit]
	}

	return cloneAll(results), len(s.todos), nil
}

// Get retrieves a todo by ID
func (s *TodoStore) Get(ctx context.Context, id int) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}
	return s.todos[i].Clone(), nil
}

// Create appends a new todo with the next ID and returns it.
// An empty priority defaults to normal.
func (s *TodoStore) Create(ctx context.Context, title string, done bool, priority models.Priority) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	if priority == "" {
		priority = models.PriorityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	todo := &models.Todo{
		ID:        s.nextID,
		Title:     title,
		Done:      done,
		Priority:  priority,
		CreatedAt: s.now(),
	}
	s.nextID++
	s.todos = append(s.todos, todo)

	return todo.Clone(), nil
}

// Update applies patch to the todo in place, stamping UpdatedAt
func (s *TodoStore) Update(ctx context.Context, id int, patch models.TodoPatch) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}

	updated := s.todos[i].Clone()
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Done != nil {
		updated.Done = *patch.Done
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	now := s.now()
	updated.UpdatedAt = &now
	s.todos[i] = updated

	return updated.Clone(), nil
}

// Delete removes a todo and returns the removed record
func (s *TodoStore) Delete(ctx context.Context, id int) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("todo %d: %w", id, ErrTodoNotFound)
	}

	removed := s.todos[i]
	s.todos = append(s.todos[:i], s.todos[i+1:]...)

	return removed, nil
}

// CompleteAll marks every pending todo done and returns how many changed
func (s *TodoStore) CompleteAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("failed to complete todos: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	affected := 0
	for i, t := range s.todos {
		if t.Done {
			continue
		}
		updated := t.Clone()
		updated.Done = true
		stamp := now
		updated.UpdatedAt = &stamp
		s.todos[i] = updated
		affected++
	}

	return affected, nil
}

// ClearCompleted removes every done todo and returns the removed and remaining counts
func (s *TodoStore) ClearCompleted(ctx context.Context) (removed int, remaining int, err error) {
	if err = ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("failed to clear completed todos: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.Done {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.todos = kept

	return removed, len(kept), nil
}

// Count returns the number of todos
func (s *TodoStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.todos), nil
}

// Stats returns aggregate counts over the collection
func (s *TodoStore) Stats(ctx context.Context) (*models.TodoStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.basicStats()
	return &stats, nil
}

// DetailedStats returns Stats plus a breakdown by priority and the todos
// created or updated within RecentActivityWindow
func (s *TodoStore) DetailedStats(ctx context.Context) (*models.DetailedTodoStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to compute detailed stats: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byPriority := make(map[models.Priority]int, len(models.Priorities()))
	for _, p := range models.Priorities() {
		byPriority[p] = 0
	}

	cutoff := s.now().Add(-RecentActivityWindow)
	recent := make([]*models.Todo, 0)
	for _, t := range s.todos {
		byPriority[t.Priority]++
		if t.CreatedAt.After(cutoff) || (t.UpdatedAt != nil && t.UpdatedAt.After(cutoff)) {
			recent = append(recent, t.Clone())
		}
	}

	return &models.DetailedTodoStats{
		TodoStats:      s.basicStats(),
		ByPriority:     byPriority,
		RecentActivity: recent,
	}, nil
}

// basicStats must be called with the lock held
func (s *TodoStore) basicStats() models.TodoStats {
	completed := 0
	for _, t := range s.todos {
		if t.Done {
			completed++
		}
	}
	total := len(s.todos)

	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return models.TodoStats{
		Total:          total,
		Completed:      completed,
		Pending:        total - completed,
		CompletionRate: rate,
	}
}

// indexOf must be called with the lock held
func (s *TodoStore) indexOf(id int) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func narrow(todos []*models.Todo, keep func(*models.Todo) bool) []*models.Todo {
	out := todos[:0:0]
	for _, t := range todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func cloneAll(todos []*models.Todo) []*models.Todo {
	out := make([]*models.Todo, len(todos))
	for i, t := range todos {
		out[i] = t.Clone()
	}
	return out
}
