package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tunelab/internal/workflow"
	"tunelab/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status, Kind: kind})
}

// writeError maps a service error to a status and writes it. It returns the
// status written.
func writeError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	var he HTTPError
	if errors.As(err, &he) {
		status = he.StatusCode()
	}
	if workflow.IsBusy(err) {
		IncrementBackpressure("submission_in_flight")
	}
	writeJSONError(w, status, err.Error(), string(workflow.KindOf(err)))
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
