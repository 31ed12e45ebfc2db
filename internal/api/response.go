package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyaneshwarpardhi/feedertrace/internal/engine"
	"github.com/gyaneshwarpardhi/feedertrace/internal/network"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine and model errors onto status codes:
// unknown ids are 404, bad requests 400, a saturated trace queue 429.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, network.ErrUnknownTerminal),
		errors.Is(err, network.ErrUnknownEquipment),
		errors.Is(err, network.ErrUnknownFeeder):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNotSwitch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
