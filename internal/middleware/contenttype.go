package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ContentType validates Content-Type headers for requests that carry a body.
// Bodiless POST/PATCH/PUT requests (e.g. PATCH /todos/complete-all) pass through.
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasBody(r) && (r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut) {
				contentType := r.Header.Get("Content-Type")

				if contentType == "" {
					respondErrorJSON(w, r, http.StatusBadRequest, "Bad Request", "Content-Type header is required", logger)
					return
				}

				// For JSON APIs, require application/json (or application/json with charset)
				if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
					respondErrorJSON(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type", "Content-Type must be application/json", logger)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// hasBody reports whether the request declares a body. Chunked requests report -1.
func hasBody(r *http.Request) bool {
	return r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0
}
