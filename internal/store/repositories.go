package store

import (
	"context"

	"github.com/benvon/todo-api/internal/models"
)

// TodoRepositoryInterface defines the collection operations handlers depend on
type TodoRepositoryInterface interface {
	List(ctx context.Context, filter models.TodoFilter) ([]*models.Todo, int, error)
	Get(ctx context.Context, id int) (*models.Todo, error)
	Create(ctx context.Context, title string, done bool, priority models.Priority) (*models.Todo, error)
	Update(ctx context.Context, id int, patch models.TodoPatch) (*models.Todo, error)
	Delete(ctx context.Context, id int) (*models.Todo, error)
	CompleteAll(ctx context.Context) (int, error)
	ClearCompleted(ctx context.Context) (int, int, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.TodoStats, error)
	DetailedStats(ctx context.Context) (*models.DetailedTodoStats, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TodoRepositoryInterface = (*TodoStore)(nil)
)
