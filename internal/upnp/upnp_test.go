package upnp

import (
	"sync"

	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
)

// recordingHandler captures transport callbacks.
type recordingHandler struct {
	mu       sync.Mutex
	alive    []string
	byebye   []string
	failed   []string
	events   []string
	eventSID []string
	notify   chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{notify: make(chan struct{}, 64)}
}

func (h *recordingHandler) OnDiscoveryAlive(deviceType, uuid, location string) {
	h.mu.Lock()
	h.alive = append(h.alive, uuid)
	h.mu.Unlock()
	h.notify <- struct{}{}
}

func (h *recordingHandler) OnDiscoveryByebye(uuid string) {
	h.mu.Lock()
	h.byebye = append(h.byebye, uuid)
	h.mu.Unlock()
	h.notify <- struct{}{}
}

func (h *recordingHandler) OnSubscriptionRenewalFailed(id string) {
	h.mu.Lock()
	h.failed = append(h.failed, id)
	h.mu.Unlock()
	h.notify <- struct{}{}
}

func (h *recordingHandler) OnEvent(sid string, payload []byte) {
	h.mu.Lock()
	h.eventSID = append(h.eventSID, sid)
	h.events = append(h.events, string(payload))
	h.mu.Unlock()
	h.notify <- struct{}{}
}

func (h *recordingHandler) snapshotEvents() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

// newTestClient returns a client that looks started without opening
// sockets, with callbacks going to h.
func newTestClient(h Handler) *Client {
	c := NewClient(config.UPnPConfig{
		CallbackHost:        "127.0.0.1",
		SubscriptionTimeout: 1800,
		DescriptionTimeout:  2,
	})
	c.callbackPort = 49999
	c.SetHandler(h)
	return c
}
