package upnp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/upnp-display/internal/infrastructure/config"
)

const userAgent = "Linux UPnP/1.1 upnp-display/1.0"

// Handler receives discovery, eventing and subscription-lifecycle
// callbacks. Callbacks may run concurrently on transport goroutines.
type Handler interface {
	OnDiscoveryAlive(deviceType, uuid, location string)
	OnDiscoveryByebye(uuid string)
	OnSubscriptionRenewalFailed(id string)
	OnEvent(sid string, payload []byte)
}

// Logger defines the logging interface used by the Client.
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

// Client is a UPnP control point transport: SSDP discovery, description
// fetching, GENA eventing and AVTransport control requests.
//
// All public methods are thread-safe.
type Client struct {
	cfg            config.UPnPConfig
	httpClient     *http.Client
	requestTimeout time.Duration
	subTimeout     time.Duration

	// token identifies this process run. It is the callback path segment,
	// so NOTIFYs addressed to a previous run are rejected.
	token string

	handler Handler
	logger  Logger

	server       *http.Server
	callbackPort int

	mu          sync.Mutex
	subs        map[string]*subscription
	parked      map[string][]parkedEvent
	parkedCount int
	closed      bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient creates a transport from configuration. Start must be called
// before subscribing.
func NewClient(cfg config.UPnPConfig) *Client {
	timeout := cfg.GetDescriptionTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	subTimeout := cfg.GetSubscriptionTimeout()
	if subTimeout <= 0 {
		subTimeout = defaultSubscriptionTimeout
	}

	return &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: timeout},
		requestTimeout: timeout,
		subTimeout:     subTimeout,
		token:          uuid.NewString(),
		handler:        nopHandler{},
		logger:         noopLogger{},
		subs:           make(map[string]*subscription),
		parked:         make(map[string][]parkedEvent),
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetHandler sets the receiver of discovery and event callbacks.
// It must be called before Start.
func (c *Client) SetHandler(h Handler) {
	c.handler = h
}

// Start opens the GENA callback listener and begins SSDP discovery.
//
// A failure to join the SSDP multicast group is logged, not returned:
// M-SEARCH responses still arrive on a unicast socket.
func (c *Client) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(c.cfg.CallbackPort)))
	if err != nil {
		return fmt.Errorf("opening event callback listener: %w", err)
	}
	c.callbackPort = ln.Addr().(*net.TCPAddr).Port

	c.server = &http.Server{
		Handler:           c.callbackRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("event callback server stopped", "error", err)
		}
	}()

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.listenNotify(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.searchLoop(ctx)
	}()

	c.logger.Info("upnp transport started",
		"callback_port", c.callbackPort,
		"search_interval", c.cfg.GetSearchInterval(),
	)
	return nil
}

// CallbackPort returns the port of the NOTIFY listener, or 0 before Start.
func (c *Client) CallbackPort() int {
	return c.callbackPort
}

// Close stops discovery, renewal timers and the callback server.
// Subscriptions are not cancelled on the devices; callers that want that
// unsubscribe first.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, sub := range c.subs {
		sub.stopRenewal()
	}
	c.subs = make(map[string]*subscription)
	c.parked = make(map[string][]parkedEvent)
	c.parkedCount = 0
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	var err error
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = c.server.Shutdown(ctx)
		cancel()
	}
	c.wg.Wait()
	return err
}

// callbackRouter builds the chi router serving GENA NOTIFY requests.
func (c *Client) callbackRouter() http.Handler {
	chi.RegisterMethod("NOTIFY")
	r := chi.NewRouter()
	r.MethodFunc("NOTIFY", "/events/{token}", c.handleNotify)
	return r
}

// setRawHeader sets a header without canonicalising its name. Some
// renderers only accept the upper-case spellings used in the UPnP
// architecture document.
func setRawHeader(h http.Header, key, value string) {
	h[key] = []string{value}
}

// nopHandler discards callbacks until SetHandler is called.
type nopHandler struct{}

func (nopHandler) OnDiscoveryAlive(string, string, string) {}
func (nopHandler) OnDiscoveryByebye(string)                {}
func (nopHandler) OnSubscriptionRenewalFailed(string)      {}
func (nopHandler) OnEvent(string, []byte)                  {}
