package renderer

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/nerrad567/upnp-display/internal/upnp"
)

// mockFetcher returns a fixed description or error.
type mockFetcher struct {
	desc  *upnp.Description
	err   error
	calls int
}

func (m *mockFetcher) FetchDescription(ctx context.Context, location string) (*upnp.Description, error) {
	m.calls++
	return m.desc, m.err
}

// mockSubscriber grants SIDs in order, failing URLs listed in fail.
type mockSubscriber struct {
	mu     sync.Mutex
	urls   []string
	fail   map[string]bool
	nextID int
}

func (m *mockSubscriber) Subscribe(ctx context.Context, eventURL string) (upnp.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, eventURL)
	if m.fail[eventURL] {
		return upnp.Subscription{}, upnp.ErrSubscribeRejected
	}
	m.nextID++
	return upnp.Subscription{SID: "uuid:sid-" + string(rune('0'+m.nextID))}, nil
}

func (m *mockSubscriber) Unsubscribe(ctx context.Context, sid string) error {
	return nil
}

// mockTable records bindings.
type mockTable struct {
	bound map[string]string
}

func (m *mockTable) Bind(sid, uuid string) bool {
	if m.bound == nil {
		m.bound = make(map[string]string)
	}
	m.bound[sid] = uuid
	return true
}

func testDescription(services ...upnp.Service) *upnp.Description {
	base, _ := url.Parse("http://192.168.1.20:49152/")
	return &upnp.Description{
		Device: upnp.Device{
			FriendlyName: "Living Room",
			Services:     services,
		},
		BaseURL: base,
	}
}

var (
	avTransport = upnp.Service{
		ServiceType: "urn:schemas-upnp-org:service:AVTransport:1",
		ControlURL:  "/AVTransport/ctrl",
		EventSubURL: "/AVTransport/event",
	}
	renderingControl = upnp.Service{
		ServiceType: "urn:schemas-upnp-org:service:RenderingControl:1",
		ControlURL:  "/RenderingControl/ctrl",
		EventSubURL: "/RenderingControl/event",
	}
	connectionManager = upnp.Service{
		ServiceType: "urn:schemas-upnp-org:service:ConnectionManager:1",
		EventSubURL: "/ConnectionManager/event",
	}
)

func TestRenderer_InitDescription(t *testing.T) {
	r := New("uuid:r1")
	f := &mockFetcher{desc: testDescription(avTransport)}

	if err := r.InitDescription(context.Background(), f, "http://192.168.1.20:49152/desc.xml"); err != nil {
		t.Fatalf("InitDescription() error = %v", err)
	}
	if r.FriendlyName() != "Living Room" {
		t.Errorf("FriendlyName() = %q, want %q", r.FriendlyName(), "Living Room")
	}
	if r.BaseURL() != "http://192.168.1.20:49152/" {
		t.Errorf("BaseURL() = %q", r.BaseURL())
	}
	if r.Location() != "http://192.168.1.20:49152/desc.xml" {
		t.Errorf("Location() = %q", r.Location())
	}

	err := r.InitDescription(context.Background(), f, "http://elsewhere/desc.xml")
	if !errors.Is(err, ErrAlreadyInitialised) {
		t.Errorf("second InitDescription() error = %v, want ErrAlreadyInitialised", err)
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}
}

func TestRenderer_InitDescriptionFailure(t *testing.T) {
	r := New("uuid:r1")
	f := &mockFetcher{err: upnp.ErrInvalidDescription}

	err := r.InitDescription(context.Background(), f, "http://host/desc.xml")
	if !errors.Is(err, upnp.ErrInvalidDescription) {
		t.Fatalf("InitDescription() error = %v, want ErrInvalidDescription", err)
	}
	if r.FriendlyName() != "" {
		t.Errorf("FriendlyName() = %q, want empty after failure", r.FriendlyName())
	}

	err = r.SubscribeToServices(context.Background(), &mockSubscriber{}, &mockTable{})
	if !errors.Is(err, ErrNotInitialised) {
		t.Errorf("SubscribeToServices() error = %v, want ErrNotInitialised", err)
	}
}

func TestRenderer_SubscribeToServices(t *testing.T) {
	r := New("uuid:r1")
	if err := r.InitDescription(context.Background(),
		&mockFetcher{desc: testDescription(avTransport, connectionManager, renderingControl)}, "http://x/"); err != nil {
		t.Fatalf("InitDescription() error = %v", err)
	}

	sub := &mockSubscriber{}
	table := &mockTable{}
	if err := r.SubscribeToServices(context.Background(), sub, table); err != nil {
		t.Fatalf("SubscribeToServices() error = %v", err)
	}

	wantURLs := []string{
		"http://192.168.1.20:49152/AVTransport/event",
		"http://192.168.1.20:49152/RenderingControl/event",
	}
	if len(sub.urls) != len(wantURLs) {
		t.Fatalf("subscribed %v, want %v", sub.urls, wantURLs)
	}
	for i := range wantURLs {
		if sub.urls[i] != wantURLs[i] {
			t.Errorf("urls[%d] = %q, want %q", i, sub.urls[i], wantURLs[i])
		}
	}

	sids := r.SubscriptionIDs()
	if len(sids) != 2 {
		t.Fatalf("SubscriptionIDs() = %v, want 2", sids)
	}
	for _, sid := range sids {
		if table.bound[sid] != "uuid:r1" {
			t.Errorf("sid %s bound to %q, want uuid:r1", sid, table.bound[sid])
		}
	}
}

func TestRenderer_SubscribeToServicesPartialFailure(t *testing.T) {
	r := New("uuid:r1")
	if err := r.InitDescription(context.Background(),
		&mockFetcher{desc: testDescription(avTransport, renderingControl)}, "http://x/"); err != nil {
		t.Fatalf("InitDescription() error = %v", err)
	}

	sub := &mockSubscriber{fail: map[string]bool{"http://192.168.1.20:49152/AVTransport/event": true}}
	table := &mockTable{}

	err := r.SubscribeToServices(context.Background(), sub, table)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("SubscribeToServices() error = %v, want ErrSubscribeFailed", err)
	}
	if !errors.Is(err, upnp.ErrSubscribeRejected) {
		t.Errorf("error does not wrap the transport error: %v", err)
	}
	// The RenderingControl subscription stays in place.
	if len(r.SubscriptionIDs()) != 1 || len(table.bound) != 1 {
		t.Errorf("SubscriptionIDs() = %v, bound = %v; want one kept subscription", r.SubscriptionIDs(), table.bound)
	}
}

func TestRenderer_SubscribeToServicesNoServices(t *testing.T) {
	r := New("uuid:r1")
	if err := r.InitDescription(context.Background(),
		&mockFetcher{desc: testDescription(connectionManager)}, "http://x/"); err != nil {
		t.Fatalf("InitDescription() error = %v", err)
	}

	err := r.SubscribeToServices(context.Background(), &mockSubscriber{}, &mockTable{})
	if !errors.Is(err, ErrNoServices) {
		t.Errorf("SubscribeToServices() error = %v, want ErrNoServices", err)
	}
}

func TestRenderer_ControlURL(t *testing.T) {
	r := New("uuid:r1")
	if _, _, ok := r.ControlURL(AVTransportPrefix); ok {
		t.Error("ControlURL() ok before description")
	}

	if err := r.InitDescription(context.Background(),
		&mockFetcher{desc: testDescription(renderingControl, avTransport)}, "http://x/"); err != nil {
		t.Fatalf("InitDescription() error = %v", err)
	}

	u, st, ok := r.ControlURL(AVTransportPrefix)
	if !ok {
		t.Fatal("ControlURL() ok = false")
	}
	if u != "http://192.168.1.20:49152/AVTransport/ctrl" {
		t.Errorf("control URL = %q", u)
	}
	if st != "urn:schemas-upnp-org:service:AVTransport:1" {
		t.Errorf("service type = %q", st)
	}
}
