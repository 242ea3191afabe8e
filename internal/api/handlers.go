package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/upnp-display/internal/controller"
	"github.com/nerrad567/upnp-display/internal/history"
	"github.com/nerrad567/upnp-display/internal/nowplaying"
)

// healthCheckTimeout bounds all component checks of one health request.
const healthCheckTimeout = 3 * time.Second

// maxPlayLimit caps the limit query parameter of /plays.
const maxPlayLimit = 500

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Renderers     int               `json:"renderers"`
	Selected      string            `json:"selected,omitempty"`
	SchemaVersion string            `json:"schema_version,omitempty"`
	Components    map[string]string `json:"components,omitempty"`
}

// handleHealth reports the daemon and each configured component. Any
// failing component makes the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Renderers: len(s.registry.Renderers()),
	}
	if uuid, ok := s.nowPlaying.Selected(); ok {
		resp.Selected = uuid
	}

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check.HealthCheck(ctx); err != nil {
				resp.Components[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	if s.schema != nil {
		v, err := s.schema.SchemaVersion(ctx)
		if err != nil {
			s.logger.Warn("reading schema version", "error", err)
		}
		resp.SchemaVersion = v
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// RendererResponse is one live renderer with its selection flag.
type RendererResponse struct {
	controller.Summary
	Selected bool `json:"selected"`
}

// handleListRenderers returns the renderers the registry tracks now.
func (s *Server) handleListRenderers(w http.ResponseWriter, _ *http.Request) {
	selected, _ := s.nowPlaying.Selected()
	summaries := s.registry.Renderers()

	out := make([]RendererResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, RendererResponse{Summary: sum, Selected: sum.UUID == selected})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"renderers": out,
		"count":     len(out),
	})
}

// handleListCatalogue returns every renderer ever recorded.
func (s *Server) handleListCatalogue(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "renderer catalogue requires the database")
		return
	}
	renderers, err := s.history.ListRenderers(r.Context())
	if err != nil {
		s.logger.Error("listing renderer catalogue", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list renderers")
		return
	}
	if renderers == nil {
		renderers = []history.Renderer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"renderers": renderers,
		"count":     len(renderers),
	})
}

// handleGetRenderer returns a live renderer, falling back to its
// catalogue row when it is offline.
func (s *Server) handleGetRenderer(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	selected, _ := s.nowPlaying.Selected()

	for _, sum := range s.registry.Renderers() {
		if sum.UUID == uuid {
			writeJSON(w, http.StatusOK, RendererResponse{Summary: sum, Selected: uuid == selected})
			return
		}
	}

	if s.history != nil {
		rend, err := s.history.GetRenderer(r.Context(), uuid)
		if err == nil {
			writeJSON(w, http.StatusOK, rend)
			return
		}
		if !errors.Is(err, history.ErrRendererNotFound) {
			s.logger.Error("getting renderer", "uuid", uuid, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get renderer")
			return
		}
	}
	writeError(w, http.StatusNotFound, "renderer not found")
}

// handleNowPlaying returns what the display is showing.
func (s *Server) handleNowPlaying(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nowplaying.NewMessage(s.nowPlaying.Sample()))
}

// handleListPlays returns the play log, newest first.
func (s *Server) handleListPlays(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "play log requires the database")
		return
	}

	filter := history.PlayFilter{RendererUUID: r.URL.Query().Get("renderer")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPlayLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxPlayLimit))
			return
		}
		filter.Limit = n
	}

	plays, err := s.history.ListPlays(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing plays", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list plays")
		return
	}
	if plays == nil {
		plays = []history.Play{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plays": plays,
		"count": len(plays),
	})
}
