package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"invoicer/internal/core"
)

// Response is the JSON envelope every API endpoint answers with.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response with a status derived from the
// error's type.
func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, errorStatus(err), err.Error())
}

// writeErrorStatus writes a JSON error response with an explicit status.
func writeErrorStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// errorStatus maps domain error types onto HTTP statuses. Unrecognized
// errors are treated as internal.
func errorStatus(err error) int {
	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		parse      *core.ParseError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &parse):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
