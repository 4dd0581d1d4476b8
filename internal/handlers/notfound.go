package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Endpoints lists the routes served by the API, in the order they are documented
func Endpoints() []string {
	return []string{
		"GET /todos - List todos (query: status, search, limit)",
		"GET /todos/:id - Get a specific todo",
		"POST /todos - Create a new todo",
		"PUT /todos/:id - Replace a todo",
		"PATCH /todos/:id - Partially update a todo",
		"DELETE /todos/:id - Delete a todo",
		"PATCH /todos/complete-all - Mark every todo as done",
		"DELETE /todos/completed - Remove completed todos",
		"GET /stats - Basic statistics",
		"GET /stats/detailed - Statistics by priority with recent activity",
		"GET /health - Health check (query: mode=extended)",
		"GET /openapi.yaml - API description (YAML)",
		"GET /openapi.json - API description (JSON)",
	}
}

// NotFound answers unmatched routes and unsupported methods with the endpoint list
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)

		response := map[string]any{
			"success":   false,
			"error":     "Not Found",
			"message":   sanitizeErrorMessage("Route " + r.Method + " " + r.URL.Path + " not found"),
			"endpoints": Endpoints(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		_ = json.NewEncoder(w).Encode(response)
	})
}
