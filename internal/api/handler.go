package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	textctx "github.com/inkwell-ai/ghostwriter/internal/context"
	"github.com/inkwell-ai/ghostwriter/internal/engine"
	"github.com/inkwell-ai/ghostwriter/internal/store"
	"github.com/inkwell-ai/ghostwriter/internal/trigger"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers. The store and notifier may
// be nil; settings then stay in-memory.
type Handler struct {
	engine   *engine.Engine
	store    *store.Store
	notifier *store.Notifier
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Engine, st *store.Store, notifier *store.Notifier, logger *zap.Logger) *Handler {
	return &Handler{engine: eng, store: st, notifier: notifier, logger: logger}
}

// Router builds the HTTP routing table.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.healthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/completions", h.requestCompletion)
		r.Post("/completions/cancel", h.cancelCompletion)

		r.Get("/sites/{site}", h.getSitePref)
		r.Put("/sites/{site}", h.putSitePref)

		r.Get("/policy", h.getPolicy)
		r.Put("/policy", h.putPolicy)

		r.Get("/providers", h.listProviders)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// completionRequest is the wire form of one trigger: the host surface's
// snapshot plus the event that caused it.
type completionRequest struct {
	Site         string            `json:"site"`
	BeforeCursor string            `json:"before_cursor"`
	AfterCursor  string            `json:"after_cursor"`
	FullText     string            `json:"full_text"`
	Trigger      string            `json:"trigger"`
	Editable     *bool             `json:"editable,omitempty"`
	Page         *textctx.PageInfo `json:"page,omitempty"`
	Stream       bool              `json:"stream"`
}

// snapshotSurface adapts a wire snapshot to the extractor's surface
// contract.
type snapshotSurface struct {
	before, after, full string
}

func (s snapshotSurface) BeforeCursor() string { return s.before }
func (s snapshotSurface) AfterCursor() string  { return s.after }
func (s snapshotSurface) FullText() string {
	if s.full != "" {
		return s.full
	}
	return s.before + s.after
}

func (h *Handler) requestCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	editable := true
	if req.Editable != nil {
		editable = *req.Editable
	}
	kind := trigger.Kind(req.Trigger)
	if kind == "" {
		kind = trigger.KindManual
	}
	in := engine.Input{
		Site:    req.Site,
		Surface: snapshotSurface{before: req.BeforeCursor, after: req.AfterCursor, full: req.FullText},
		Page:    req.Page,
		Event: trigger.Event{
			Kind:            kind,
			Site:            req.Site,
			SurfaceEditable: editable,
		},
	}

	if req.Stream {
		h.streamCompletion(w, r, in)
		return
	}

	final, admitted := h.engine.HandleTrigger(r.Context(), in, nil)
	if !admitted {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if final.Status == "" {
		// cancelled mid-flight; nothing to show
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, final)
}

// streamCompletion mirrors engine updates as server-sent events.
func (h *Handler) streamCompletion(w http.ResponseWriter, r *http.Request, in engine.Input) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(u engine.Update) {
		data, err := json.Marshal(u)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	final, admitted := h.engine.HandleTrigger(r.Context(), in, emit)
	if !admitted {
		fmt.Fprint(w, "data: {\"status\":\"rejected\"}\n\n")
		flusher.Flush()
		return
	}
	if final.Status != "" {
		emit(final)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h *Handler) cancelCompletion(w http.ResponseWriter, r *http.Request) {
	h.engine.CancelActive()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getSitePref(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	enabled := true
	if h.store != nil {
		var err error
		enabled, err = h.store.SiteEnabled(r.Context(), site)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"site": site, "enabled": enabled})
}

func (h *Handler) putSitePref(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no persistence configured"})
		return
	}
	if err := h.store.SetSiteEnabled(r.Context(), site, body.Enabled); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"site": site, "enabled": body.Enabled})
}

func (h *Handler) getPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Policy())
}

func (h *Handler) putPolicy(w http.ResponseWriter, r *http.Request) {
	var p trigger.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.engine.UpdatePolicy(p)
	if h.store != nil {
		if err := h.store.SavePolicy(r.Context(), p); err != nil {
			h.logger.Warn("policy persistence failed", zap.Error(err))
		}
	}
	if h.notifier != nil {
		if err := h.notifier.Publish(r.Context(), store.SettingsChange{Policy: &p}); err != nil {
			h.logger.Warn("policy broadcast failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	type providerInfo struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Streaming bool   `json:"streaming"`
	}
	var out []providerInfo
	for _, p := range h.engine.Providers().ListProviders() {
		out = append(out, providerInfo{ID: p.ID(), Name: p.Name(), Streaming: p.SupportsStreaming()})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
