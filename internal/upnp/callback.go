package upnp

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	maxEventSize = 1 << 20

	// Events for SIDs not yet returned by Subscribe are held this long.
	parkTTL = 10 * time.Second

	// maxParked bounds the number of held events across all SIDs.
	maxParked = 32
)

type parkedEvent struct {
	payload []byte
	at      time.Time
}

// handleNotify receives a GENA event and hands it to the handler before
// answering, so a device that waits for the response delivers in order.
func (c *Client) handleNotify(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "token") != c.token {
		http.NotFound(w, r)
		return
	}

	sid := strings.TrimSpace(r.Header.Get("SID"))
	if sid == "" || r.Header.Get("NT") != "upnp:event" || r.Header.Get("NTS") != "upnp:propchange" {
		http.Error(w, "precondition failed", http.StatusPreconditionFailed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxEventSize))
	if err != nil {
		http.Error(w, "reading body", http.StatusBadRequest)
		return
	}

	c.dispatch(sid, payload)
	w.WriteHeader(http.StatusOK)
}

// dispatch delivers an event or parks it when its SID is not yet known
// or still has parked events ahead of it.
func (c *Client) dispatch(sid string, payload []byte) {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	if !ok || sub.replayPending {
		c.parkLocked(sid, payload, time.Now())
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()
	c.deliver(sid, payload)
}

// replay delivers parked events for sid and switches it to direct delivery.
func (c *Client) replay(sid string) {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	c.mu.Unlock()
	if !ok {
		return
	}

	sub.deliverMu.Lock()
	defer sub.deliverMu.Unlock()

	c.mu.Lock()
	events := c.takeParkedLocked(sid, time.Now())
	sub.replayPending = false
	c.mu.Unlock()

	for _, ev := range events {
		c.deliver(sid, ev.payload)
	}
	if len(events) > 0 {
		c.logger.Debug("replayed parked events", "sid", sid, "count", len(events))
	}
}

func (c *Client) deliver(sid string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in event handler", "sid", sid, "panic", r)
		}
	}()
	c.handler.OnEvent(sid, payload)
}

// parkLocked holds an event for later replay. Caller must hold c.mu.
func (c *Client) parkLocked(sid string, payload []byte, now time.Time) {
	c.pruneParkedLocked(now)
	if c.parkedCount >= maxParked {
		c.logger.Debug("dropping event for unknown subscription", "sid", sid)
		return
	}
	c.parked[sid] = append(c.parked[sid], parkedEvent{payload: payload, at: now})
	c.parkedCount++
}

// takeParkedLocked removes and returns the unexpired events for sid.
func (c *Client) takeParkedLocked(sid string, now time.Time) []parkedEvent {
	events := c.parked[sid]
	c.dropParkedLocked(sid)

	fresh := events[:0]
	for _, ev := range events {
		if now.Sub(ev.at) <= parkTTL {
			fresh = append(fresh, ev)
		}
	}
	return fresh
}

func (c *Client) dropParkedLocked(sid string) {
	c.parkedCount -= len(c.parked[sid])
	delete(c.parked, sid)
}

func (c *Client) pruneParkedLocked(now time.Time) {
	for sid, events := range c.parked {
		kept := events[:0]
		for _, ev := range events {
			if now.Sub(ev.at) <= parkTTL {
				kept = append(kept, ev)
			}
		}
		c.parkedCount -= len(events) - len(kept)
		if len(kept) == 0 {
			delete(c.parked, sid)
		} else {
			c.parked[sid] = kept
		}
	}
}
