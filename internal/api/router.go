package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/upnp-display/internal/panel"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.accessLogMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	// Browser now-playing page (embedded via go:embed)
	r.Handle("/panel/*", http.StripPrefix("/panel", panel.Handler(s.cfg.PanelDir)))
	r.Handle("/panel", http.RedirectHandler("/panel/", http.StatusMovedPermanently))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/renderers", func(r chi.Router) {
			r.Get("/", s.handleListRenderers)
			r.Get("/catalogue", s.handleListCatalogue)
			r.Get("/{uuid}", s.handleGetRenderer)
		})

		r.Get("/nowplaying", s.handleNowPlaying)
		r.Get("/plays", s.handleListPlays)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
