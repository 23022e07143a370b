// Package api provides standardized helper functions for HTTP API responses.
package api

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Body is a successful response. It always carries "success": true.
type Body map[string]interface{}

// OK builds a success body from alternating key/value pairs.
func OK(kv ...interface{}) Body {
	body := Body{"success": true}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			body[key] = kv[i+1]
		}
	}
	return body
}

// Success sends a JSON response with the given status.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error sends an error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	ErrorWithDetails(w, statusCode, message, "")
}

// ErrorWithDetails sends an error response carrying operator diagnostics.
func ErrorWithDetails(w http.ResponseWriter, statusCode int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details})
}
