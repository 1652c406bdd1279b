// Package httputil centralizes the response envelope so every handler
// answers in the same shape: {"success": bool, "message": ..., "data": ...}.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "investgate/pkg/domain-errors"
)

// Envelope is the uniform JSON body for every endpoint.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON writes a success envelope with the given status.
func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Decode reads a JSON body into T. On failure it writes a 400 failure
// envelope and returns ok=false; the handler should return immediately.
func Decode[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Invalid request body"))
		return nil, false
	}
	return &req, true
}

// WriteError translates a domain error into the failure envelope. Internal
// errors (and anything uncoded) get a generic message so server detail
// never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "Internal server error"
	var violations []string
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			message = de.Message
			violations = de.Violations
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Message: message,
		Errors:  violations,
	})
}
