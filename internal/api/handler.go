package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/eugenenazirov/config-composer/internal/compose"
	"github.com/eugenenazirov/config-composer/internal/preset"
	"github.com/eugenenazirov/config-composer/internal/threshold"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires composer and preset registry dependencies into HTTP handlers.
type Handler struct {
	composer compose.Composer
	presets  preset.Registry

	clock func() time.Time

	mu        sync.RWMutex
	updatedAt map[string]time.Time
	startedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(composer compose.Composer, presets preset.Registry, opts ...HandlerOption) *Handler {
	h := &Handler{
		composer:  composer,
		presets:   presets,
		updatedAt: make(map[string]time.Time),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.startedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, presetListResponse{Presets: h.presets.Names()})
}

func (h *Handler) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cfg, err := h.presets.Get(name)
	if err != nil {
		if errors.Is(err, preset.ErrPresetNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presetResponse{
		Name:      name,
		Config:    cfg,
		UpdatedAt: h.presetUpdatedAt(name),
	})
}

func (h *Handler) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if err := h.presets.Put(name, req.Config); err != nil {
		if errors.Is(err, preset.ErrInvalidPreset) {
			writeError(w, http.StatusBadRequest, "Invalid preset", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markPresetUpdated(name)

	cfg, err := h.presets.Get(name)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presetResponse{
		Name:      name,
		Config:    cfg,
		UpdatedAt: h.presetUpdatedAt(name),
		Message:   "Preset stored successfully",
	})
}

func (h *Handler) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if req.Preset != "" && req.Base != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "provide either preset or base, not both")
		return
	}

	base := req.Base
	if req.Preset != "" {
		cfg, err := h.presets.Get(req.Preset)
		if err != nil {
			if errors.Is(err, preset.ErrPresetNotFound) {
				writeError(w, http.StatusNotFound, "Preset not found", err.Error(),
					"List available presets with GET /api/presets")
				return
			}
			writeInternalError(w, err)
			return
		}
		base = cfg
	}

	start := time.Now()
	merged, err := h.composer.Compose(base, req.Overrides)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, compose.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "Invalid input", err.Error(),
				"Send a base object or name a preset")
			return
		}
		writeInternalError(w, err)
		return
	}

	thresholds, err := threshold.Extract(merged)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid coverage threshold", err.Error())
		return
	}

	resp := composeResponse{
		Config:              merged,
		CompositionTimeUsec: elapsed.Microseconds(),
	}
	if !thresholds.Empty() {
		resp.Thresholds = &thresholds
	}
	writeJSON(w, http.StatusOK, resp)
}

// presetUpdatedAt reports when a preset was last stored through the API,
// falling back to the handler start time for built-in presets.
func (h *Handler) presetUpdatedAt(name string) time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if at, ok := h.updatedAt[name]; ok {
		return at
	}
	return h.startedAt
}

func (h *Handler) markPresetUpdated(name string) {
	h.mu.Lock()
	h.updatedAt[name] = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type composeRequest struct {
	Preset    string         `json:"preset"`
	Base      map[string]any `json:"base"`
	Overrides map[string]any `json:"overrides"`
}

type composeResponse struct {
	Config              map[string]any        `json:"config"`
	Thresholds          *threshold.Thresholds `json:"thresholds,omitempty"`
	CompositionTimeUsec int64                 `json:"compositionTimeUsec"`
}

type presetRequest struct {
	Config map[string]any `json:"config"`
}

type presetResponse struct {
	Name      string         `json:"name"`
	Config    map[string]any `json:"config"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Message   string         `json:"message,omitempty"`
}

type presetListResponse struct {
	Presets []string `json:"presets"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
