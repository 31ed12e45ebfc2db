package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/feedertrace/internal/config"
	"github.com/gyaneshwarpardhi/feedertrace/internal/engine"
	"github.com/gyaneshwarpardhi/feedertrace/internal/metrics"
	"github.com/gyaneshwarpardhi/feedertrace/internal/state"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. Reloads go through
// loader; whatever applies the reloaded config to eng must be registered with
// loader.OnChange by the caller.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/terminals/{id}", h.getTerminal)
	h.mux.HandleFunc("GET /v1/terminals/{id}/connectivity", h.getConnectivity)
	h.mux.HandleFunc("GET /v1/feeders/{id}", h.getFeeder)
	h.mux.HandleFunc("GET /v1/lv-feeders/{id}", h.getLvFeeder)
	h.mux.HandleFunc("PUT /v1/equipment/{id}/open", h.setOpen)
	h.mux.HandleFunc("POST /v1/network/trace", h.trace)
	h.mux.HandleFunc("POST /v1/network/reload", h.reload)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// GET /v1/terminals/{id}
func (h *Handler) getTerminal(w http.ResponseWriter, r *http.Request) {
	info, err := h.eng.Terminal(r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GET /v1/terminals/{id}/connectivity?state=normal|current
func (h *Handler) getConnectivity(w http.ResponseWriter, r *http.Request) {
	view, ok := viewParam(w, r)
	if !ok {
		return
	}
	conns, err := h.eng.Connectivity(r.PathValue("id"), view)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"terminal":    r.PathValue("id"),
		"state":       view.String(),
		"connections": conns,
	})
}

// GET /v1/feeders/{id}?state=
func (h *Handler) getFeeder(w http.ResponseWriter, r *http.Request) {
	view, ok := viewParam(w, r)
	if !ok {
		return
	}
	m, err := h.eng.Feeder(r.PathValue("id"), view)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /v1/lv-feeders/{id}?state=
func (h *Handler) getLvFeeder(w http.ResponseWriter, r *http.Request) {
	view, ok := viewParam(w, r)
	if !ok {
		return
	}
	m, err := h.eng.LvFeeder(r.PathValue("id"), view)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type openRequest struct {
	Open *bool `json:"open"`
}

// PUT /v1/equipment/{id}/open?state=: operate a switch and repair that state.
func (h *Handler) setOpen(w http.ResponseWriter, r *http.Request) {
	view, ok := viewParam(w, r)
	if !ok {
		return
	}
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.Open == nil {
		writeError(w, http.StatusBadRequest, "open is required")
		return
	}
	res, err := h.eng.SetOpen(r.Context(), r.PathValue("id"), view, *req.Open)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/network/trace: full rebuild of both states.
func (h *Handler) trace(w http.ResponseWriter, r *http.Request) {
	res, err := h.eng.Rebuild(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/network/reload: re-read the network file from disk.
func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.loader.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := h.eng.LastApply()
	if status == nil {
		writeError(w, http.StatusInternalServerError, "reload was not applied")
		return
	}
	if status.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, status)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 until the network has been traced, or if the trace queue
// is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if !h.eng.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "tracing",
			"queue_utilization": util,
		})
		return
	}
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}

func viewParam(w http.ResponseWriter, r *http.Request) (state.View, bool) {
	view, err := state.Parse(r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return view, true
}
