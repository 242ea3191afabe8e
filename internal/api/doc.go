// Package api implements the read-only HTTP status API and the WebSocket
// feed of now-playing changes.
//
// Endpoints under /api/v1:
//
//	GET /health                    component health and schema version
//	GET /metrics                   runtime and registry counters
//	GET /renderers                 renderers currently known to the registry
//	GET /renderers/catalogue       every renderer ever seen (needs the database)
//	GET /nowplaying                the latest display sample
//	GET /plays?renderer=&limit=    the play log, newest first (needs the database)
//	GET /ws                        WebSocket; subscribe to "nowplaying.changed"
//
// The server follows the same lifecycle as the infrastructure clients:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The database and the WebSocket hub are optional. Endpoints that need
// the database answer 503 when it is not configured.
package api
