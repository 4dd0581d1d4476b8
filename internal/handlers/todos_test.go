package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/todo-api/internal/events"
	"github.com/benvon/todo-api/internal/models"
	"github.com/benvon/todo-api/internal/store"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// envelope covers every top-level key the API responds with
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Details   []string        `json:"details"`
	Count     *int            `json:"count"`
	Total     *int            `json:"total"`
	Removed   *int            `json:"removed"`
	Remaining *int            `json:"remaining"`
	Endpoints []string        `json:"endpoints"`
	Timestamp string          `json:"timestamp"`
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error                      { return nil }
func (p *recordingPublisher) HealthCheck(context.Context) error { return p.err }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")

// failingRepo fails every operation with a non-sentinel error
type failingRepo struct{}

func (failingRepo) List(context.Context, models.TodoFilter) ([]*models.Todo, int, error) {
	return nil, 0, errBoom
}
func (failingRepo) Get(context.Context, int) (*models.Todo, error) { return nil, errBoom }
func (failingRepo) Create(context.Context, string, bool, models.Priority) (*models.Todo, error) {
	return nil, errBoom
}
func (failingRepo) Update(context.Context, int, models.TodoPatch) (*models.Todo, error) {
	return nil, errBoom
}
func (failingRepo) Delete(context.Context, int) (*models.Todo, error)       { return nil, errBoom }
func (failingRepo) CompleteAll(context.Context) (int, error)                { return 0, errBoom }
func (failingRepo) ClearCompleted(context.Context) (int, int, error)        { return 0, 0, errBoom }
func (failingRepo) Count(context.Context) (int, error)                      { return 0, errBoom }
func (failingRepo) Stats(context.Context) (*models.TodoStats, error)        { return nil, errBoom }
func (failingRepo) DetailedStats(context.Context) (*models.DetailedTodoStats, error) {
	return nil, errBoom
}

var _ store.TodoRepositoryInterface = failingRepo{}

func newTestRouter(t *testing.T, repo store.TodoRepositoryInterface, opts ...TodoHandlerOption) *mux.Router {
	t.Helper()

	r := mux.NewRouter()
	NewTodoHandler(repo, zap.NewNop(), opts...).RegisterRoutes(r)
	r.NotFoundHandler = NotFound()
	r.MethodNotAllowedHandler = NotFound()
	return r
}

func newSeededRouter(t *testing.T, opts ...TodoHandlerOption) *mux.Router {
	t.Helper()
	return newTestRouter(t, store.NewTodoStore(store.WithSeed(store.DefaultSeed(time.Now())...)), opts...)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: failed to decode response %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func decodeTodo(t *testing.T, raw json.RawMessage) models.Todo {
	t.Helper()
	var todo models.Todo
	if err := json.Unmarshal(raw, &todo); err != nil {
		t.Fatalf("failed to decode todo %q: %v", raw, err)
	}
	return todo
}

func decodeTodos(t *testing.T, raw json.RawMessage) []models.Todo {
	t.Helper()
	var todos []models.Todo
	if err := json.Unmarshal(raw, &todos); err != nil {
		t.Fatalf("failed to decode todos %q: %v", raw, err)
	}
	return todos
}

func TestTodoLifecycle_BuyMilk(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	w, env := doRequest(t, r, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	created := decodeTodo(t, env.Data)
	if created.ID != 3 {
		t.Errorf("Expected next id 3, got %d", created.ID)
	}
	if created.Title != "Buy milk" || created.Done || created.Priority != models.PriorityNormal {
		t.Errorf("Unexpected created todo: %+v", created)
	}
	if created.UpdatedAt != nil {
		t.Error("Expected updatedAt to be absent on a new todo")
	}

	path := "/todos/" + strconv.Itoa(created.ID)
	w, got := doRequest(t, r, http.MethodGet, path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", w.Code)
	}
	if !bytes.Equal(got.Data, env.Data) {
		t.Errorf("Expected fetched record %s to equal created %s", got.Data, env.Data)
	}

	w, deleted := doRequest(t, r, http.MethodDelete, path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE: expected 200, got %d", w.Code)
	}
	if deleted.Message != "Todo deleted" {
		t.Errorf("Expected message 'Todo deleted', got %q", deleted.Message)
	}
	if decodeTodo(t, deleted.Data).ID != created.ID {
		t.Error("Expected deleted record to be returned")
	}

	w, missing := doRequest(t, r, http.MethodGet, path, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET after DELETE: expected 404, got %d", w.Code)
	}
	if missing.Success || missing.Message != "Todo not found" {
		t.Errorf("Unexpected not-found body: %+v", missing)
	}
}

func TestCreateTodo_IDsIncreaseAndAreNotReused(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	prev := 0
	for i := 0; i < 3; i++ {
		_, env := doRequest(t, r, http.MethodPost, "/todos", `{"title":"Item number `+strconv.Itoa(i)+`"}`)
		id := decodeTodo(t, env.Data).ID
		if id <= prev {
			t.Fatalf("Expected id greater than %d, got %d", prev, id)
		}
		prev = id
	}

	doRequest(t, r, http.MethodDelete, "/todos/"+strconv.Itoa(prev), "")

	_, env := doRequest(t, r, http.MethodPost, "/todos", `{"title":"After delete"}`)
	if id := decodeTodo(t, env.Data).ID; id != prev+1 {
		t.Errorf("Expected id %d after deleting %d, got %d", prev+1, prev, id)
	}
}

func TestCreateTodo_Fields(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	w, env := doRequest(t, r, http.MethodPost, "/todos", `{"title":"  Ship release  ","done":true,"priority":"urgent"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}
	todo := decodeTodo(t, env.Data)
	if todo.Title != "Ship release" {
		t.Errorf("Expected trimmed title, got %q", todo.Title)
	}
	if !todo.Done {
		t.Error("Expected done true")
	}
	if todo.Priority != models.PriorityUrgent {
		t.Errorf("Expected urgent priority, got %q", todo.Priority)
	}
}

func TestCreateTodo_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantError   string
		wantMessage string
	}{
		{name: "empty body", body: "", wantError: "Validation Failed", wantMessage: "Title is required and cannot be empty"},
		{name: "missing title", body: `{"done":false}`, wantError: "Validation Failed", wantMessage: "Title is required and cannot be empty"},
		{name: "blank title", body: `{"title":"   "}`, wantError: "Validation Failed", wantMessage: "Title is required and cannot be empty"},
		{name: "short title", body: `{"title":"ab"}`, wantError: "Validation Failed", wantMessage: "Title must be at least 3 characters"},
		{name: "long title", body: `{"title":"` + strings.Repeat("a", 101) + `"}`, wantError: "Validation Failed", wantMessage: "Title cannot exceed 100 characters"},
		{name: "bad priority", body: `{"title":"Valid","priority":"someday"}`, wantError: "Validation Failed", wantMessage: "Priority must be one of: low, normal, high, urgent"},
		{name: "done not boolean", body: `{"title":"Valid","done":"yes"}`, wantError: "Validation Failed", wantMessage: "Done must be a boolean"},
		{name: "malformed json", body: `{"title":`, wantError: "Bad Request", wantMessage: "Invalid request body"},
		{name: "array body", body: `[1,2]`, wantError: "Bad Request", wantMessage: "Invalid request body"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := &recordingPublisher{}
			r := newSeededRouter(t, WithEventPublisher(pub))

			w, env := doRequest(t, r, http.MethodPost, "/todos", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d (%s)", w.Code, w.Body.String())
			}
			if env.Success {
				t.Error("Expected success false")
			}
			if env.Error != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, env.Error)
			}
			if env.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, env.Message)
			}
			if tt.wantError == "Validation Failed" && len(env.Details) == 0 {
				t.Error("Expected validation details")
			}

			// Nothing may be created on a rejected request
			_, list := doRequest(t, r, http.MethodGet, "/todos", "")
			if *list.Total != 2 {
				t.Errorf("Expected collection to be untouched, total = %d", *list.Total)
			}
			if len(pub.types()) != 0 {
				t.Errorf("Expected no events, got %v", pub.types())
			}
		})
	}
}

func TestCreateTodo_MultipleViolations(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)
	_, env := doRequest(t, r, http.MethodPost, "/todos", `{"title":"ab","priority":"nope","done":1}`)

	want := []string{
		"Title must be at least 3 characters",
		"Priority must be one of: low, normal, high, urgent",
		"Done must be a boolean",
	}
	if strings.Join(env.Details, "|") != strings.Join(want, "|") {
		t.Errorf("Expected details %v, got %v", want, env.Details)
	}
}

func TestCreateTodo_BodyTooLarge(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(`{"title":"`+strings.Repeat("a", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Body = http.MaxBytesReader(w, req.Body, 16)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestListTodos_Filters(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)
	doRequest(t, r, http.MethodPost, "/todos", `{"title":"Buy milk","done":true}`)
	doRequest(t, r, http.MethodPost, "/todos", `{"title":"Buy bread"}`)

	tests := []struct {
		name      string
		query     string
		wantIDs   []int
		wantTotal int
	}{
		{name: "no filters", query: "", wantIDs: []int{1, 2, 3, 4}, wantTotal: 4},
		{name: "completed", query: "?status=completed", wantIDs: []int{3}, wantTotal: 4},
		{name: "other status means pending", query: "?status=pending", wantIDs: []int{1, 2, 4}, wantTotal: 4},
		{name: "search is case-insensitive", query: "?search=BUY", wantIDs: []int{3, 4}, wantTotal: 4},
		{name: "status and search compose", query: "?status=active&search=buy", wantIDs: []int{4}, wantTotal: 4},
		{name: "limit", query: "?limit=2", wantIDs: []int{1, 2}, wantTotal: 4},
		{name: "limit above size", query: "?limit=100", wantIDs: []int{1, 2, 3, 4}, wantTotal: 4},
		{name: "non-positive limit ignored", query: "?limit=0", wantIDs: []int{1, 2, 3, 4}, wantTotal: 4},
		{name: "non-numeric limit ignored", query: "?limit=abc", wantIDs: []int{1, 2, 3, 4}, wantTotal: 4},
		{name: "search then limit", query: "?search=buy&limit=1", wantIDs: []int{3}, wantTotal: 4},
		{name: "no match", query: "?search=zzz", wantIDs: []int{}, wantTotal: 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, env := doRequest(t, r, http.MethodGet, "/todos"+tt.query, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			todos := decodeTodos(t, env.Data)
			ids := make([]int, 0, len(todos))
			for _, todo := range todos {
				ids = append(ids, todo.ID)
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("Expected ids %v, got %v", tt.wantIDs, ids)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Fatalf("Expected ids %v, got %v", tt.wantIDs, ids)
				}
			}
			if env.Count == nil || *env.Count != len(tt.wantIDs) {
				t.Errorf("Expected count %d, got %v", len(tt.wantIDs), env.Count)
			}
			if env.Total == nil || *env.Total != tt.wantTotal {
				t.Errorf("Expected total %d, got %v", tt.wantTotal, env.Total)
			}
		})
	}
}

func TestReplaceTodo(t *testing.T) {
	t.Parallel()

	t.Run("preserves fields absent from the body", func(t *testing.T) {
		t.Parallel()

		r := newSeededRouter(t)
		_, created := doRequest(t, r, http.MethodPost, "/todos", `{"title":"Write docs","done":true,"priority":"high"}`)
		id := decodeTodo(t, created.Data).ID

		w, env := doRequest(t, r, http.MethodPut, "/todos/"+strconv.Itoa(id), `{"title":"Write more docs"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		todo := decodeTodo(t, env.Data)
		if todo.Title != "Write more docs" {
			t.Errorf("Expected new title, got %q", todo.Title)
		}
		if !todo.Done || todo.Priority != models.PriorityHigh {
			t.Errorf("Expected done and priority preserved, got %+v", todo)
		}
		if todo.UpdatedAt == nil {
			t.Error("Expected updatedAt to be set")
		}
	})

	t.Run("title is required", func(t *testing.T) {
		t.Parallel()

		r := newSeededRouter(t)
		w, env := doRequest(t, r, http.MethodPut, "/todos/1", `{"done":true}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", w.Code)
		}
		if env.Message != "Title is required and cannot be empty" {
			t.Errorf("Unexpected message %q", env.Message)
		}

		_, got := doRequest(t, r, http.MethodGet, "/todos/1", "")
		if decodeTodo(t, got.Data).Done {
			t.Error("Expected rejected update to leave the todo unchanged")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()

		r := newSeededRouter(t)
		w, _ := doRequest(t, r, http.MethodPut, "/todos/999", `{"title":"Anything"}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestPatchTodo(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	w, env := doRequest(t, r, http.MethodPatch, "/todos/1", `{"done":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	todo := decodeTodo(t, env.Data)
	if todo.Title != "Learn GitHub" || !todo.Done || todo.Priority != models.PriorityNormal {
		t.Errorf("Unexpected patched todo: %+v", todo)
	}

	w, env = doRequest(t, r, http.MethodPatch, "/todos/1", `{"priority":"later"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if env.Message != "Priority must be one of: low, normal, high, urgent" {
		t.Errorf("Unexpected message %q", env.Message)
	}
}

func TestTodoByID_InvalidIDs(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/todos/abc"},
		{method: http.MethodGet, path: "/todos/0"},
		{method: http.MethodGet, path: "/todos/-1"},
		{method: http.MethodGet, path: "/todos/999"},
		{method: http.MethodGet, path: "/todos/completed"},
		{method: http.MethodPut, path: "/todos/abc", body: `{"title":"Valid title"}`},
		{method: http.MethodPatch, path: "/todos/abc", body: `{"done":true}`},
		{method: http.MethodDelete, path: "/todos/abc"},
		{method: http.MethodDelete, path: "/todos/999"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w, env := doRequest(t, r, tt.method, tt.path, tt.body)
			if w.Code != http.StatusNotFound {
				t.Fatalf("Expected 404, got %d", w.Code)
			}
			if env.Message != "Todo not found" {
				t.Errorf("Expected 'Todo not found', got %q", env.Message)
			}
		})
	}
}

func TestCompleteAll(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	w, env := doRequest(t, r, http.MethodPatch, "/todos/complete-all", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if env.Count == nil || *env.Count != 2 {
		t.Fatalf("Expected count 2, got %v", env.Count)
	}

	_, pending := doRequest(t, r, http.MethodGet, "/todos?status=pending", "")
	if *pending.Count != 0 {
		t.Errorf("Expected no pending todos, got %d", *pending.Count)
	}

	_, again := doRequest(t, r, http.MethodPatch, "/todos/complete-all", "")
	if again.Count == nil || *again.Count != 0 {
		t.Errorf("Expected second call to affect 0 todos, got %v", again.Count)
	}
}

func TestClearCompleted(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)
	doRequest(t, r, http.MethodPatch, "/todos/2", `{"done":true}`)

	w, env := doRequest(t, r, http.MethodDelete, "/todos/completed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if env.Removed == nil || *env.Removed != 1 {
		t.Errorf("Expected removed 1, got %v", env.Removed)
	}
	if env.Remaining == nil || *env.Remaining != 1 {
		t.Errorf("Expected remaining 1, got %v", env.Remaining)
	}

	w, _ = doRequest(t, r, http.MethodGet, "/todos/2", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected cleared todo to be gone, got %d", w.Code)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)
	doRequest(t, r, http.MethodPost, "/todos", `{"title":"Urgent thing","done":true,"priority":"urgent"}`)

	w, env := doRequest(t, r, http.MethodGet, "/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var stats models.TodoStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	want := models.TodoStats{Total: 3, Completed: 1, Pending: 2, CompletionRate: 33}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}

	w, env = doRequest(t, r, http.MethodGet, "/stats/detailed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var detailed models.DetailedTodoStats
	if err := json.Unmarshal(env.Data, &detailed); err != nil {
		t.Fatalf("failed to decode detailed stats: %v", err)
	}
	if detailed.TodoStats != want {
		t.Errorf("Expected embedded stats %+v, got %+v", want, detailed.TodoStats)
	}
	for _, p := range models.Priorities() {
		if _, ok := detailed.ByPriority[p]; !ok {
			t.Errorf("Expected byPriority key %q", p)
		}
	}
	if detailed.ByPriority[models.PriorityNormal] != 2 || detailed.ByPriority[models.PriorityUrgent] != 1 {
		t.Errorf("Unexpected priority breakdown %v", detailed.ByPriority)
	}
	if len(detailed.RecentActivity) != 3 {
		t.Errorf("Expected 3 recent todos, got %d", len(detailed.RecentActivity))
	}
}

func TestHandlers_StoreFailureIsGeneric500(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, failingRepo{})

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodGet, path: "/todos"},
		{method: http.MethodGet, path: "/todos/1"},
		{method: http.MethodPost, path: "/todos", body: `{"title":"Valid title"}`},
		{method: http.MethodPut, path: "/todos/1", body: `{"title":"Valid title"}`},
		{method: http.MethodDelete, path: "/todos/1"},
		{method: http.MethodPatch, path: "/todos/complete-all"},
		{method: http.MethodDelete, path: "/todos/completed"},
		{method: http.MethodGet, path: "/stats"},
		{method: http.MethodGet, path: "/stats/detailed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w, env := doRequest(t, r, tt.method, tt.path, tt.body)
			if w.Code != http.StatusInternalServerError {
				t.Fatalf("Expected 500, got %d", w.Code)
			}
			if env.Message != "Internal server error" {
				t.Errorf("Expected generic message, got %q", env.Message)
			}
			if strings.Contains(w.Body.String(), errBoom.Error()) {
				t.Error("Expected internal error detail to stay out of the response")
			}
		})
	}
}

func TestTodoHandler_PublishesEvents(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	r := newSeededRouter(t, WithEventPublisher(pub))

	doRequest(t, r, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	doRequest(t, r, http.MethodPut, "/todos/3", `{"title":"Buy oat milk"}`)
	doRequest(t, r, http.MethodDelete, "/todos/3", "")
	doRequest(t, r, http.MethodPatch, "/todos/complete-all", "")
	doRequest(t, r, http.MethodDelete, "/todos/completed", "")

	want := []events.EventType{
		events.EventTodoCreated,
		events.EventTodoUpdated,
		events.EventTodoDeleted,
		events.EventTodosCompletedAll,
		events.EventTodosClearedCompleted,
	}
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	pub.mu.Lock()
	first := pub.events[0]
	pub.mu.Unlock()
	if first.TodoID == nil || *first.TodoID != 3 {
		t.Errorf("Expected created event for todo 3, got %v", first.TodoID)
	}
}

func TestTodoHandler_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errors.New("broker down")}
	r := newSeededRouter(t, WithEventPublisher(pub))

	w, _ := doRequest(t, r, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 despite publish failure, got %d", w.Code)
	}
	if len(pub.types()) != 1 {
		t.Errorf("Expected one publish attempt, got %d", len(pub.types()))
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	r := newSeededRouter(t)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/nope"},
		{method: http.MethodPost, path: "/stats"},
		{method: http.MethodPost, path: "/todos/1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			t.Parallel()

			w, env := doRequest(t, r, tt.method, tt.path, "")
			if w.Code != http.StatusNotFound {
				t.Fatalf("Expected 404, got %d", w.Code)
			}
			if env.Success {
				t.Error("Expected success false")
			}
			if len(env.Endpoints) != len(Endpoints()) {
				t.Errorf("Expected %d endpoints, got %d", len(Endpoints()), len(env.Endpoints))
			}
			if !strings.Contains(env.Message, tt.path) {
				t.Errorf("Expected message to mention %s, got %q", tt.path, env.Message)
			}
		})
	}
}
