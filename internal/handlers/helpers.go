package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

var (
	// errInvalidBody is returned when the request body is not a JSON object
	errInvalidBody = errors.New("invalid request body")
	// errBodyTooLarge is returned when the request body exceeds the configured limit
	errBodyTooLarge = errors.New("request body too large")
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	respondJSONWithFields(w, status, data, nil)
}

// respondJSONWithFields sends a success envelope with extra top-level fields.
// A nil data value leaves the data key out.
func respondJSONWithFields(w http.ResponseWriter, status int, data any, fields map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		response[k] = v
	}
	response["success"] = true
	response["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if data != nil {
		response["data"] = data
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage caps error messages sent to clients
func sanitizeErrorMessage(message string) string {
	if len(message) > 200 {
		return message[:200] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	respondJSONErrorDetails(w, status, errorType, message, nil)
}

// respondJSONErrorDetails sends an error envelope carrying a list of violation details
func respondJSONErrorDetails(w http.ResponseWriter, status int, errorType, message string, details []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(details) > 0 {
		response["details"] = details
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes a JSON object from the request body into dst.
// An empty body leaves dst untouched so that validation reports the missing fields.
func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxBytesErr):
			return errBodyTooLarge
		default:
			return errInvalidBody
		}
	}
	return nil
}

// respondDecodeError maps a decodeJSONBody error to its HTTP response
func respondDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body too large")
		return
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
}

// parseTodoID extracts the {id} path variable. Only positive integers are valid IDs.
func parseTodoID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
