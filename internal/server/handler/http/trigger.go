// Package http provides the HTTP trigger surface for the sync pipeline.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avoronov/keepsync/internal/models"
)

// Runner executes one pipeline invocation.
type Runner interface {
	// Run returns nil on success and the first fatal error otherwise.
	Run(ctx context.Context) error
}

// TriggerHandler handles HTTP requests that fire a pipeline invocation.
type TriggerHandler struct {
	// Pipeline runs the invocation.
	Pipeline Runner
	// Guard serializes invocations; at most one pipeline runs at a time.
	// The same guard is shared with the interval scheduler so scheduled
	// and triggered invocations never overlap.
	Guard chan struct{}
}

// NewTriggerHandler constructs a TriggerHandler around the given runner.
// guard must have capacity one.
func NewTriggerHandler(pipeline Runner, guard chan struct{}) *TriggerHandler {
	return &TriggerHandler{
		Pipeline: pipeline,
		Guard:    guard,
	}
}

// Trigger handles POST /api/trigger requests. The body is an opaque
// trigger event and is ignored. The invocation runs synchronously; a
// second trigger arriving while one is in flight is rejected with 409
// rather than queued, so the snapshot read-modify-write never races.
func (h *TriggerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	select {
	case h.Guard <- struct{}{}:
		defer func() { <-h.Guard }()
	default:
		http.Error(w, "invocation already in progress", http.StatusConflict)
		return
	}

	if err := h.Pipeline.Run(r.Context()); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, models.ErrAuthRejected):
			status = http.StatusUnauthorized
		case errors.Is(err, models.ErrNoteNotFound):
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Health handles GET /api/health requests.
func (h *TriggerHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
