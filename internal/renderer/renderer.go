package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/upnp-display/internal/upnp"
)

// Service type prefixes the renderer subscribes to.
const (
	AVTransportPrefix      = upnp.AVTransportServicePrefix
	RenderingControlPrefix = "urn:schemas-upnp-org:service:RenderingControl:"
)

// Logger defines the logging interface used by a Renderer.
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

// DescriptionFetcher downloads and parses a device description.
type DescriptionFetcher interface {
	FetchDescription(ctx context.Context, location string) (*upnp.Description, error)
}

// ServiceSubscriber manages GENA subscriptions.
type ServiceSubscriber interface {
	Subscribe(ctx context.Context, eventURL string) (upnp.Subscription, error)
	Unsubscribe(ctx context.Context, sid string) error
}

// SubscriptionTable maps subscription IDs to renderer UUIDs so events can
// be routed. Bind returns false if uuid is no longer registered.
type SubscriptionTable interface {
	Bind(sid, uuid string) bool
}

// View is the read-only face of a Renderer handed to observers.
type View interface {
	UUID() string
	FriendlyName() string
	GetVariable(name string) string
	LastUpdateTime() time.Time
}

// Renderer is the control point's record of one MediaRenderer: its
// description-derived identity, its subscriptions and its state variables.
//
// All methods are thread-safe.
type Renderer struct {
	uuid string
	vars *VariableStore

	mu              sync.RWMutex
	initialised     bool
	location        string
	friendlyName    string
	description     *upnp.Description
	subscriptionIDs []string

	logger Logger
}

// New creates a record for the device with the given UUID.
func New(uuid string) *Renderer {
	return &Renderer{
		uuid:   uuid,
		vars:   NewVariableStore(),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the renderer.
func (r *Renderer) SetLogger(logger Logger) {
	r.logger = logger
}

// UUID returns the device identity, e.g. "uuid:5f9e...".
func (r *Renderer) UUID() string {
	return r.uuid
}

// FriendlyName returns the name from the description, or "" before
// InitDescription succeeded.
func (r *Renderer) FriendlyName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.friendlyName
}

// Location returns the description URL passed to InitDescription.
func (r *Renderer) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// BaseURL returns the base used to resolve service URLs.
func (r *Renderer) BaseURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.description == nil || r.description.BaseURL == nil {
		return ""
	}
	return r.description.BaseURL.String()
}

// SubscriptionIDs returns the SIDs of the renderer's subscriptions.
func (r *Renderer) SubscriptionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.subscriptionIDs...)
}

// GetVariable returns the last known value of a state variable.
func (r *Renderer) GetVariable(name string) string {
	return r.vars.Get(name)
}

// SetVariable stores a value obtained outside eventing, such as a polled
// position. It does not count as event activity.
func (r *Renderer) SetVariable(name, value string) {
	r.vars.Set(name, value)
}

// Variables returns a copy of all state variables.
func (r *Renderer) Variables() map[string]string {
	return r.vars.Snapshot()
}

// LastUpdateTime returns when the last event was applied.
func (r *Renderer) LastUpdateTime() time.Time {
	return r.vars.LastUpdate()
}

// InitDescription fetches the device description once. The friendly name
// and base URL are fixed from then on.
func (r *Renderer) InitDescription(ctx context.Context, fetcher DescriptionFetcher, location string) error {
	r.mu.Lock()
	if r.initialised {
		r.mu.Unlock()
		return ErrAlreadyInitialised
	}
	r.initialised = true
	r.location = location
	r.mu.Unlock()

	desc, err := fetcher.FetchDescription(ctx, location)
	if err != nil {
		return fmt.Errorf("initialising %s: %w", r.uuid, err)
	}

	r.mu.Lock()
	r.description = desc
	r.friendlyName = desc.FriendlyName()
	r.mu.Unlock()

	r.logger.Debug("renderer description loaded",
		"uuid", r.uuid,
		"name", desc.FriendlyName(),
		"location", location,
	)
	return nil
}

// SubscribeToServices subscribes to every AVTransport and RenderingControl
// service of the device. It returns nil only if every subscription
// succeeded; successful ones are kept on partial failure.
func (r *Renderer) SubscribeToServices(ctx context.Context, subscriber ServiceSubscriber, table SubscriptionTable) error {
	r.mu.RLock()
	desc := r.description
	r.mu.RUnlock()
	if desc == nil {
		return ErrNotInitialised
	}

	var targets []upnp.Service
	for _, svc := range desc.Services() {
		if strings.HasPrefix(svc.ServiceType, AVTransportPrefix) ||
			strings.HasPrefix(svc.ServiceType, RenderingControlPrefix) {
			targets = append(targets, svc)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("%s: %w", r.uuid, ErrNoServices)
	}

	var errs []error
	for _, svc := range targets {
		eventURL, err := desc.ResolveURL(svc.EventSubURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", svc.ServiceType, err))
			continue
		}

		sub, err := subscriber.Subscribe(ctx, eventURL)
		if err != nil {
			r.logger.Warn("subscribe failed",
				"uuid", r.uuid,
				"name", desc.FriendlyName(),
				"service", svc.ServiceType,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", svc.ServiceType, err))
			continue
		}

		r.mu.Lock()
		r.subscriptionIDs = append(r.subscriptionIDs, sub.SID)
		r.mu.Unlock()

		if !table.Bind(sub.SID, r.uuid) {
			r.logger.Debug("renderer removed while subscribing", "uuid", r.uuid, "sid", sub.SID)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, errors.Join(errs...))
	}
	return nil
}

// ControlURL returns the resolved control URL and exact service type of
// the first service whose type has the given prefix.
func (r *Renderer) ControlURL(prefix string) (controlURL, serviceType string, ok bool) {
	r.mu.RLock()
	desc := r.description
	r.mu.RUnlock()
	if desc == nil {
		return "", "", false
	}

	for _, svc := range desc.Services() {
		if !strings.HasPrefix(svc.ServiceType, prefix) {
			continue
		}
		u, err := desc.ResolveURL(svc.ControlURL)
		if err != nil {
			return "", "", false
		}
		return u, svc.ServiceType, true
	}
	return "", "", false
}
