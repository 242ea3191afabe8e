package controller

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/upnp-display/internal/renderer"
	"github.com/nerrad567/upnp-display/internal/upnp"
)

// MediaRendererPrefix matches every MediaRenderer device type version.
const MediaRendererPrefix = "urn:schemas-upnp-org:device:MediaRenderer:"

// defaultOpTimeout bounds the network work done for one discovery or removal.
const defaultOpTimeout = 30 * time.Second

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Transport is what the registry needs from the UPnP stack.
type Transport interface {
	renderer.DescriptionFetcher
	renderer.ServiceSubscriber
}

// Summary describes a known renderer for status reporting.
type Summary struct {
	UUID          string    `json:"uuid"`
	FriendlyName  string    `json:"friendly_name"`
	Location      string    `json:"location"`
	BaseURL       string    `json:"base_url"`
	Subscriptions int       `json:"subscriptions"`
	LastUpdate    time.Time `json:"last_update"`
	Announced     bool      `json:"announced"`
}

type entry struct {
	rec *renderer.Renderer

	// announced is set once the observer has been told about rec.
	announced bool
}

// Registry owns every known renderer and routes events to them by
// subscription ID. It implements upnp.Handler.
//
// The lock is never held across network requests. Observer calls are
// made under the lock so AddRenderer and RemoveRenderer for one UUID
// cannot be reordered.
//
// All public methods are thread-safe.
type Registry struct {
	transport Transport
	observer  Observer
	opTimeout time.Duration

	mu     sync.Mutex
	byUUID map[string]*entry
	bySID  map[string]string // sid -> uuid
	closed bool

	logger Logger
}

// NewRegistry creates a registry that uses transport for network work and
// reports renderers to observer.
func NewRegistry(transport Transport, observer Observer) *Registry {
	if observer == nil {
		observer = Observers(nil)
	}
	return &Registry{
		transport: transport,
		observer:  observer,
		opTimeout: defaultOpTimeout,
		byUUID:    make(map[string]*entry),
		bySID:     make(map[string]string),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// OnDiscoveryAlive registers a newly announced MediaRenderer, loads its
// description, subscribes to its services and tells the observer.
// Other device types and already known UUIDs are ignored.
func (r *Registry) OnDiscoveryAlive(deviceType, uuid, location string) {
	if !strings.HasPrefix(deviceType, MediaRendererPrefix) || uuid == "" {
		return
	}

	rec := renderer.New(uuid)
	rec.SetLogger(r.logger)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if _, known := r.byUUID[uuid]; known {
		r.mu.Unlock()
		return
	}
	e := &entry{rec: rec}
	r.byUUID[uuid] = e
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	if err := rec.InitDescription(ctx, r.transport, location); err != nil {
		r.logger.Warn("renderer description failed", "uuid", uuid, "location", location, "error", err)
	} else if err := rec.SubscribeToServices(ctx, r.transport, r); err != nil {
		r.logger.Warn("renderer subscription incomplete", "uuid", uuid, "name", rec.FriendlyName(), "error", err)
	}

	r.mu.Lock()
	if current, ok := r.byUUID[uuid]; !ok || current != e {
		r.mu.Unlock()
		// Removed while we were talking to it.
		r.unsubscribe(rec.SubscriptionIDs())
		return
	}
	e.announced = true
	r.observer.AddRenderer(uuid, rec)
	r.mu.Unlock()

	r.logger.Info("renderer added",
		"uuid", uuid,
		"name", rec.FriendlyName(),
		"subscriptions", len(rec.SubscriptionIDs()),
	)
}

// OnDiscoveryByebye removes a renderer that announced its departure.
func (r *Registry) OnDiscoveryByebye(uuid string) {
	if r.remove(uuid) {
		r.logger.Info("renderer left", "uuid", uuid)
	}
}

// OnSubscriptionRenewalFailed removes the renderer owning id, which may be
// a device UUID or a subscription ID.
func (r *Registry) OnSubscriptionRenewalFailed(id string) {
	r.mu.Lock()
	uuid := id
	if _, ok := r.byUUID[id]; !ok {
		uuid = r.bySID[id]
	}
	r.mu.Unlock()

	if uuid != "" && r.remove(uuid) {
		r.logger.Info("renderer dropped after failed renewal", "uuid", uuid, "id", id)
	}
}

// OnEvent routes an event to the renderer owning sid. Events for unknown
// SIDs are discarded.
func (r *Registry) OnEvent(sid string, payload []byte) {
	r.mu.Lock()
	var rec *renderer.Renderer
	if e, ok := r.byUUID[r.bySID[sid]]; ok {
		rec = e.rec
	}
	r.mu.Unlock()

	if rec == nil {
		r.logger.Debug("event for unknown subscription", "sid", sid)
		return
	}
	rec.ApplyEvent(payload)
}

// Bind records that sid belongs to uuid. It returns false if uuid has
// been removed in the meantime.
func (r *Registry) Bind(sid, uuid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUUID[uuid]; !ok {
		return false
	}
	r.bySID[sid] = uuid
	return true
}

// Lookup returns the renderer with the given UUID.
func (r *Registry) Lookup(uuid string) (*renderer.Renderer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byUUID[uuid]
	if !ok {
		return nil, false
	}
	return e.rec, true
}

// Count returns the number of known renderers.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUUID)
}

// Renderers returns a summary of every known renderer, sorted by name.
func (r *Registry) Renderers() []Summary {
	r.mu.Lock()
	type snapshot struct {
		rec       *renderer.Renderer
		announced bool
	}
	snaps := make([]snapshot, 0, len(r.byUUID))
	for _, e := range r.byUUID {
		snaps = append(snaps, snapshot{rec: e.rec, announced: e.announced})
	}
	r.mu.Unlock()

	out := make([]Summary, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, Summary{
			UUID:          s.rec.UUID(),
			FriendlyName:  s.rec.FriendlyName(),
			Location:      s.rec.Location(),
			BaseURL:       s.rec.BaseURL(),
			Subscriptions: len(s.rec.SubscriptionIDs()),
			LastUpdate:    s.rec.LastUpdateTime(),
			Announced:     s.announced,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FriendlyName != out[j].FriendlyName {
			return out[i].FriendlyName < out[j].FriendlyName
		}
		return out[i].UUID < out[j].UUID
	})
	return out
}

// Close removes every renderer, unsubscribing from each. Later discovery
// callbacks are ignored.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	uuids := make([]string, 0, len(r.byUUID))
	for uuid := range r.byUUID {
		uuids = append(uuids, uuid)
	}
	r.mu.Unlock()

	for _, uuid := range uuids {
		r.remove(uuid)
	}
}

// remove tells the observer, drops the renderer and its SID mappings,
// then unsubscribes outside the lock. It reports whether uuid was known.
func (r *Registry) remove(uuid string) bool {
	r.mu.Lock()
	e, ok := r.byUUID[uuid]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if e.announced {
		r.observer.RemoveRenderer(uuid)
	}
	var sids []string
	for sid, owner := range r.bySID {
		if owner == uuid {
			sids = append(sids, sid)
			delete(r.bySID, sid)
		}
	}
	delete(r.byUUID, uuid)
	r.mu.Unlock()

	r.unsubscribe(sids)
	return true
}

// unsubscribe cancels subscriptions on a best-effort basis.
func (r *Registry) unsubscribe(sids []string) {
	if len(sids) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	for _, sid := range sids {
		err := r.transport.Unsubscribe(ctx, sid)
		switch {
		case err == nil:
		case errors.Is(err, upnp.ErrUnknownSubscription):
			// Already gone, e.g. after a failed renewal.
		default:
			r.logger.Debug("unsubscribe failed", "sid", sid, "error", err)
		}
	}
}
