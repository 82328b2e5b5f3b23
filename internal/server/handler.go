// Package server exposes the dashboard HTTP API on top of a recorder.QueryExecutor.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/se-tech-pvt-ltd/recorder-dashboard/pkg/recorder"
)

// maxBodyBytes caps request bodies; heartbeats and branch forms are tiny.
const maxBodyBytes = 1 << 20

// Handler serves the dashboard API.
type Handler struct {
	db     recorder.QueryExecutor
	pool   recorder.ConnPool
	logger recorder.Logger

	now   func() time.Time
	newID func() string
}

// NewHandler creates a Handler. pool is only used for the health report
// and may be nil.
func NewHandler(db recorder.QueryExecutor, pool recorder.ConnPool, logger recorder.Logger) *Handler {
	return &Handler{
		db:     db,
		pool:   pool,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Routes returns a chi.Router with every endpoint mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.Get("/api/ping", h.handlePing)
	r.Get("/api/health", h.handleHealth)
	r.Post("/api/heartbeat/submit", h.handleHeartbeatSubmit)

	r.Route("/api/branches", func(r chi.Router) {
		r.Get("/", h.handleListBranches)
		r.Post("/", h.handleCreateBranch)
		r.Get("/{id}", h.handleGetBranch)
		r.Put("/{id}", h.handleUpdateBranch)
		r.Delete("/{id}", h.handleDeleteBranch)
	})
	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Recorder Dashboard API - Production Ready",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// handleHealth runs a trivial query through the retrying executor and
// reports pool usage.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"database": "ok"}
	if h.pool != nil {
		body["pool"] = h.pool.Stat()
	}

	if _, err := h.db.ExecuteRead(r.Context(), "SELECT 1"); err != nil {
		h.logger.Error("Health check failed: %v", err)
		body["database"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps executor errors to a status. Pool saturation is a
// temporary condition the client can retry; everything else is a 500.
func (h *Handler) writeFailure(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, recorder.ErrPoolExhausted) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "Server busy, try again")
		return
	}
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
