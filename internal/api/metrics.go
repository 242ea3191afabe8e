package api

import (
	"net/http"
	"runtime"
	"time"
)

const mebibyte = 1 << 20

// SystemMetrics is the body of GET /metrics.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	Renderers     RendererMetrics `json:"renderers"`
}

// RuntimeMetrics is a subset of runtime.MemStats plus the goroutine count.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// RendererMetrics counts the registry's renderers.
type RendererMetrics struct {
	Total         int `json:"total"`
	Announced     int `json:"announced"`
	Subscriptions int `json:"subscriptions"`
}

func readRuntimeMetrics() RuntimeMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return RuntimeMetrics{
		Goroutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(ms.Alloc) / mebibyte,
		MemoryTotalMB: float64(ms.TotalAlloc) / mebibyte,
		NumGC:         ms.NumGC,
	}
}

func (s *Server) rendererMetrics() RendererMetrics {
	var m RendererMetrics
	for _, sum := range s.registry.Renderers() {
		m.Total++
		m.Subscriptions += sum.Subscriptions
		if sum.Announced {
			m.Announced++
		}
	}
	return m
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	now := time.Now()
	m := SystemMetrics{
		Timestamp:     now.UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(now.Sub(s.startTime) / time.Second),
		Runtime:       readRuntimeMetrics(),
		Renderers:     s.rendererMetrics(),
	}
	if s.hub != nil {
		m.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, m)
}
