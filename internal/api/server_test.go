package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/upnp-display/internal/controller"
	"github.com/nerrad567/upnp-display/internal/display"
	"github.com/nerrad567/upnp-display/internal/history"
	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
	"github.com/nerrad567/upnp-display/internal/infrastructure/database"
	"github.com/nerrad567/upnp-display/internal/infrastructure/logging"
	"github.com/nerrad567/upnp-display/internal/nowplaying"
	"github.com/nerrad567/upnp-display/migrations"
)

type mockRegistry struct {
	summaries []controller.Summary
}

func (m *mockRegistry) Renderers() []controller.Summary { return m.summaries }

type mockNowPlaying struct {
	info     display.RenderInfo
	selected string
}

func (m *mockNowPlaying) Sample() display.RenderInfo { return m.info }

func (m *mockNowPlaying) Selected() (string, bool) { return m.selected, m.selected != "" }

type mockChecker struct {
	err error
}

func (m mockChecker) HealthCheck(context.Context) error { return m.err }

type mockSchema struct{}

func (mockSchema) SchemaVersion(context.Context) (string, error) { return "20261019_120000", nil }

func testLogger() *logging.Logger {
	return logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
}

// testServer creates a Server with one live renderer and no database.
func testServer(t *testing.T) (*Server, *mockRegistry, *mockNowPlaying) {
	t.Helper()

	reg := &mockRegistry{summaries: []controller.Summary{
		{UUID: "uuid:lr", FriendlyName: "Living Room", Subscriptions: 2, Announced: true},
		{UUID: "uuid:k", FriendlyName: "Kitchen", Announced: true},
	}}
	np := &mockNowPlaying{
		selected: "uuid:lr",
		info: display.RenderInfo{
			PlayState:  display.Playing,
			PlayerName: "Living Room",
			UUID:       "uuid:lr",
			Title:      "Song",
			Volume:     "25",
			Time:       65,
		},
	}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:     testLogger(),
		Registry:   reg,
		NowPlaying: np,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.wsCfg, srv.logger)
	go srv.hub.Run(ctx)

	return srv, reg, np
}

// withHistory attaches a migrated SQLite history repository to srv.
func withHistory(t *testing.T, srv *Server) *history.SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "api.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := history.NewSQLiteRepository(db.DB)
	srv.history = repo
	srv.schema = db
	return repo
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
	}{
		{"no logger", Deps{Registry: &mockRegistry{}, NowPlaying: &mockNowPlaying{}}},
		{"no registry", Deps{Logger: testLogger(), NowPlaying: &mockNowPlaying{}}},
		{"no now playing", Deps{Logger: testLogger(), Registry: &mockRegistry{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)
	srv.checks = map[string]HealthChecker{"mqtt": mockChecker{}}

	w := get(t, srv, "/api/v1/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("status/version = %q/%q", resp.Status, resp.Version)
	}
	if resp.Renderers != 2 || resp.Selected != "uuid:lr" {
		t.Errorf("renderers/selected = %d/%q", resp.Renderers, resp.Selected)
	}
	if resp.Components["mqtt"] != "ok" {
		t.Errorf("components = %v", resp.Components)
	}
}

func TestHealth_Degraded(t *testing.T) {
	srv, _, _ := testServer(t)
	srv.checks = map[string]HealthChecker{
		"mqtt":     mockChecker{err: errors.New("not connected")},
		"influxdb": mockChecker{},
	}
	srv.schema = mockSchema{}

	w := get(t, srv, "/api/v1/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp HealthResponse
	decode(t, w, &resp)
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Components["mqtt"] != "not connected" || resp.Components["influxdb"] != "ok" {
		t.Errorf("components = %v", resp.Components)
	}
	if resp.SchemaVersion != "20261019_120000" {
		t.Errorf("schema_version = %q", resp.SchemaVersion)
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _, _ := testServer(t)

	w := get(t, srv, "/api/v1/health")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"open", nil, "http://localhost:3000", "http://localhost:3000"},
		{"listed", []string{"http://dash.local"}, "http://dash.local", "http://dash.local"},
		{"wildcard", []string{"*"}, "http://other", "http://other"},
		{"refused", []string{"http://dash.local"}, "http://evil", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := testServer(t)
			srv.cfg.CORS.AllowedOrigins = tt.allowed

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			srv.buildRouter().ServeHTTP(w, req)

			if w.Code != http.StatusNoContent {
				t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("ACAO = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	srv, _, _ := testServer(t)
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestNotFound(t *testing.T) {
	srv, _, _ := testServer(t)

	if w := get(t, srv, "/api/v1/nonexistent"); w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w := get(t, srv, "/api/v1/renderers/uuid:missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing renderer status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Error.Code != "not_found" || resp.Error.Message != "renderer not found" {
		t.Errorf("error body = %+v", resp.Error)
	}
}

func TestServiceUnavailableWithoutDatabase(t *testing.T) {
	srv, _, _ := testServer(t)

	w := get(t, srv, "/api/v1/plays")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("plays status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Error.Code != "service_unavailable" {
		t.Errorf("error code = %q, want service_unavailable", resp.Error.Code)
	}
}

func TestPanel(t *testing.T) {
	srv, _, _ := testServer(t)

	w := get(t, srv, "/panel")
	if w.Code != http.StatusMovedPermanently || w.Header().Get("Location") != "/panel/" {
		t.Errorf("GET /panel = %d %q, want redirect to /panel/", w.Code, w.Header().Get("Location"))
	}

	w = get(t, srv, "/panel/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Errorf("GET /panel/ = %d, want the now-playing page", w.Code)
	}
	if w := get(t, srv, "/panel/panel.js"); w.Code != http.StatusOK {
		t.Errorf("GET /panel/panel.js = %d, want 200", w.Code)
	}
}

// ─── Renderer Tests ────────────────────────────────────────────────

func TestListRenderers(t *testing.T) {
	srv, _, _ := testServer(t)

	w := get(t, srv, "/api/v1/renderers")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Renderers []RendererResponse `json:"renderers"`
		Count     int                `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 2 || len(resp.Renderers) != 2 {
		t.Fatalf("count = %d, renderers = %d, want 2", resp.Count, len(resp.Renderers))
	}
	if !resp.Renderers[0].Selected || resp.Renderers[1].Selected {
		t.Errorf("selected flags = %v/%v, want true/false", resp.Renderers[0].Selected, resp.Renderers[1].Selected)
	}
	if resp.Renderers[0].Subscriptions != 2 {
		t.Errorf("subscriptions = %d, want 2", resp.Renderers[0].Subscriptions)
	}
}

func TestGetRenderer(t *testing.T) {
	srv, _, _ := testServer(t)
	repo := withHistory(t, srv)
	if err := repo.UpsertRenderer(context.Background(), history.Renderer{UUID: "uuid:old", FriendlyName: "Garage"}); err != nil {
		t.Fatalf("UpsertRenderer() error = %v", err)
	}
	if err := repo.MarkOffline(context.Background(), "uuid:old", time.Now()); err != nil {
		t.Fatalf("MarkOffline() error = %v", err)
	}

	w := get(t, srv, "/api/v1/renderers/uuid:k")
	if w.Code != http.StatusOK {
		t.Fatalf("live status = %d", w.Code)
	}
	var live RendererResponse
	decode(t, w, &live)
	if live.FriendlyName != "Kitchen" || live.Selected {
		t.Errorf("live = %+v", live)
	}

	w = get(t, srv, "/api/v1/renderers/uuid:old")
	if w.Code != http.StatusOK {
		t.Fatalf("catalogue status = %d", w.Code)
	}
	var old history.Renderer
	decode(t, w, &old)
	if old.FriendlyName != "Garage" || old.Online {
		t.Errorf("catalogue = %+v", old)
	}

	if w := get(t, srv, "/api/v1/renderers/uuid:none"); w.Code != http.StatusNotFound {
		t.Errorf("missing status = %d, want 404", w.Code)
	}
}

func TestListCatalogue(t *testing.T) {
	srv, _, _ := testServer(t)

	if w := get(t, srv, "/api/v1/renderers/catalogue"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("without database status = %d, want 503", w.Code)
	}

	repo := withHistory(t, srv)
	w := get(t, srv, "/api/v1/renderers/catalogue")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"renderers":[]`) {
		t.Errorf("empty catalogue = %d %s", w.Code, w.Body.String())
	}

	if err := repo.UpsertRenderer(context.Background(), history.Renderer{UUID: "uuid:lr", FriendlyName: "Living Room"}); err != nil {
		t.Fatalf("UpsertRenderer() error = %v", err)
	}
	var resp struct {
		Renderers []history.Renderer `json:"renderers"`
		Count     int                `json:"count"`
	}
	decode(t, get(t, srv, "/api/v1/renderers/catalogue"), &resp)
	if resp.Count != 1 || resp.Renderers[0].UUID != "uuid:lr" || !resp.Renderers[0].Online {
		t.Errorf("catalogue = %+v", resp)
	}
}

// ─── Now Playing and Play Log Tests ────────────────────────────────

func TestNowPlaying(t *testing.T) {
	srv, _, np := testServer(t)

	var msg nowplaying.Message
	decode(t, get(t, srv, "/api/v1/nowplaying"), &msg)
	if !msg.Ready || msg.Title != "Song" || msg.PlayState != "PLAYING" || msg.Time != 65 {
		t.Errorf("now playing = %+v", msg)
	}

	np.info = display.RenderInfo{IsWaitingForRenderer: true, PlayerName: "Kitchen"}
	decode(t, get(t, srv, "/api/v1/nowplaying"), &msg)
	if msg.Ready || msg.Player != "Kitchen" {
		t.Errorf("waiting = %+v", msg)
	}
}

func TestListPlays(t *testing.T) {
	srv, _, _ := testServer(t)

	if w := get(t, srv, "/api/v1/plays"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("without database status = %d, want 503", w.Code)
	}

	repo := withHistory(t, srv)
	base := time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)
	for i, p := range []history.Play{
		{RendererUUID: "uuid:lr", Title: "One", StartedAt: base},
		{RendererUUID: "uuid:k", Title: "Two", StartedAt: base.Add(time.Minute)},
		{RendererUUID: "uuid:lr", Title: "Three", StartedAt: base.Add(2 * time.Minute)},
	} {
		if err := repo.RecordPlay(context.Background(), &p); err != nil {
			t.Fatalf("RecordPlay(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name   string
		query  string
		status int
		want   []string
	}{
		{"all", "", http.StatusOK, []string{"Three", "Two", "One"}},
		{"renderer", "?renderer=uuid:lr", http.StatusOK, []string{"Three", "One"}},
		{"limit", "?limit=1", http.StatusOK, []string{"Three"}},
		{"bad limit", "?limit=abc", http.StatusBadRequest, nil},
		{"zero limit", "?limit=0", http.StatusBadRequest, nil},
		{"huge limit", "?limit=100000", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, srv, "/api/v1/plays"+tt.query)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp struct {
				Plays []history.Play `json:"plays"`
			}
			decode(t, w, &resp)
			if len(resp.Plays) != len(tt.want) {
				t.Fatalf("plays = %d, want %d", len(resp.Plays), len(tt.want))
			}
			for i, title := range tt.want {
				if resp.Plays[i].Title != title {
					t.Errorf("play %d = %q, want %q", i, resp.Plays[i].Title, title)
				}
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	srv, _, _ := testServer(t)

	var m SystemMetrics
	decode(t, get(t, srv, "/api/v1/metrics"), &m)
	if m.Version != "test" || m.Runtime.Goroutines == 0 {
		t.Errorf("metrics = %+v", m)
	}
	if m.Renderers.Total != 2 || m.Renderers.Announced != 2 || m.Renderers.Subscriptions != 2 {
		t.Errorf("renderer metrics = %+v", m.Renderers)
	}
}

// ─── Lifecycle Tests ───────────────────────────────────────────────

func TestServer_StartClose(t *testing.T) {
	srv, _, _ := testServer(t)

	if err := srv.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() before Start = nil, want error")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := srv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// ─── WebSocket Tests ───────────────────────────────────────────────

func dialWebSocket(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.buildRouter())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func TestWebSocket_SubscribeAndFeed(t *testing.T) {
	srv, _, _ := testServer(t)
	ws := dialWebSocket(t, srv)

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelNowPlaying}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if resp := readMessage(t, ws); resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Fatalf("subscribe response = %+v", resp)
	}

	feed := NewFeed(srv.hub)
	info := display.RenderInfo{PlayState: display.Playing, PlayerName: "Living Room", Title: "Song"}
	feed.OnRenderInfo(info)
	info.Time = 30
	feed.OnRenderInfo(info) // position only: not broadcast
	info.Title = "Next"
	feed.OnRenderInfo(info)

	for _, want := range []string{"Song", "Next"} {
		msg := readMessage(t, ws)
		if msg.Type != WSTypeEvent || msg.EventType != ChannelNowPlaying {
			t.Fatalf("event = %+v", msg)
		}
		payload, _ := msg.Payload.(map[string]any)
		if payload["title"] != want {
			t.Errorf("title = %v, want %s", payload["title"], want)
		}
	}

	feed.OnExit()
	msg := readMessage(t, ws)
	payload, _ := msg.Payload.(map[string]any)
	if payload["play_state"] != nowplaying.OfflineState {
		t.Errorf("exit payload = %v", payload)
	}
}

func TestWebSocket_PingAndErrors(t *testing.T) {
	srv, _, _ := testServer(t)
	ws := dialWebSocket(t, srv)

	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if msg := readMessage(t, ws); msg.Type != WSTypePong || msg.ID != "p1" {
		t.Errorf("pong = %+v", msg)
	}

	if err := ws.WriteJSON(WSMessage{Type: "bogus", ID: "b1"}); err != nil {
		t.Fatalf("write bogus: %v", err)
	}
	if msg := readMessage(t, ws); msg.Type != WSTypeError || msg.ID != "b1" {
		t.Errorf("error = %+v", msg)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if msg := readMessage(t, ws); msg.Type != WSTypeError {
		t.Errorf("junk reply = %+v", msg)
	}
}

func TestWebSocket_UnsubscribedClientsGetNothing(t *testing.T) {
	srv, _, _ := testServer(t)
	ws := dialWebSocket(t, srv)

	// Round-trip a ping so the client is registered before broadcasting.
	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	readMessage(t, ws)
	if srv.hub.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", srv.hub.ClientCount())
	}

	srv.hub.Broadcast(ChannelNowPlaying, map[string]string{"title": "x"})

	ws.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err == nil {
		t.Errorf("unsubscribed client received %+v", msg)
	}
}

func TestWebSocket_RetainedEventOnSubscribe(t *testing.T) {
	srv, _, _ := testServer(t)
	NewFeed(srv.hub).OnRenderInfo(display.RenderInfo{PlayState: display.Paused, PlayerName: "Kitchen", Title: "Earlier"})

	ws := dialWebSocket(t, srv)
	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{ChannelNowPlaying}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if resp := readMessage(t, ws); resp.Type != WSTypeResponse {
		t.Fatalf("subscribe response = %+v", resp)
	}

	msg := readMessage(t, ws)
	payload, _ := msg.Payload.(map[string]any)
	if msg.EventType != ChannelNowPlaying || payload["title"] != "Earlier" {
		t.Errorf("retained event = %+v", msg)
	}
}

func TestHub_RunDisconnectsClients(t *testing.T) {
	srv, _, _ := testServer(t)
	hub := NewHub(srv.wsCfg, srv.logger)
	srv.hub = hub
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	ws := dialWebSocket(t, srv)
	if err := ws.WriteJSON(WSMessage{Type: WSTypePing, ID: "p1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	readMessage(t, ws)

	cancel()
	<-done

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("connection still open after hub shutdown")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}
