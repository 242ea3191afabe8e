package upnp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultSubscriptionTimeout = 30 * time.Minute

	// Renewal is sent when this fraction of the granted timeout has elapsed.
	renewalNumerator   = 9
	renewalDenominator = 10
	minRenewalDelay    = time.Second

	// replayDelay gives the caller time to record a new SID before
	// parked initial events are delivered.
	replayDelay = 250 * time.Millisecond
)

// Subscription is a granted GENA subscription.
type Subscription struct {
	SID     string
	Timeout time.Duration // 0 means infinite
}

type subscription struct {
	sid      string
	eventURL string
	timeout  time.Duration
	timer    *time.Timer

	// replayPending is set until parked events for this SID have been
	// delivered; NOTIFYs arriving meanwhile are parked behind them.
	replayPending bool

	// deliverMu serialises delivery so events for one SID reach the
	// handler in arrival order.
	deliverMu sync.Mutex
}

func (s *subscription) stopRenewal() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// Subscribe sends a GENA SUBSCRIBE for eventURL and starts automatic
// renewal. If renewal later fails the handler's
// OnSubscriptionRenewalFailed is called with the SID.
func (c *Client) Subscribe(ctx context.Context, eventURL string) (Subscription, error) {
	if c.callbackPort == 0 {
		return Subscription{}, ErrNotStarted
	}

	callback, err := c.callbackURL(eventURL)
	if err != nil {
		return Subscription{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventURL, nil)
	if err != nil {
		return Subscription{}, fmt.Errorf("building subscribe request: %w", err)
	}
	setRawHeader(req.Header, "CALLBACK", "<"+callback+">")
	setRawHeader(req.Header, "NT", "upnp:event")
	setRawHeader(req.Header, "TIMEOUT", formatTimeout(c.subTimeout))
	setRawHeader(req.Header, "USER-AGENT", userAgent)
	setRawHeader(req.Header, "CPUUID.UPNP.ORG", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Subscription{}, fmt.Errorf("subscribing to %s: %w", eventURL, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Subscription{}, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, eventURL)
	}
	sid := strings.TrimSpace(resp.Header.Get("SID"))
	if sid == "" {
		return Subscription{}, fmt.Errorf("%w: no SID from %s", ErrSubscribeRejected, eventURL)
	}
	timeout := parseTimeout(resp.Header.Get("TIMEOUT"), c.subTimeout)

	sub := &subscription{
		sid:           sid,
		eventURL:      eventURL,
		timeout:       timeout,
		replayPending: true,
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Subscription{}, ErrNotStarted
	}
	c.subs[sid] = sub
	c.scheduleRenewal(sub)
	c.mu.Unlock()

	time.AfterFunc(replayDelay, func() { c.replay(sid) })

	c.logger.Debug("subscribed", "sid", sid, "event_url", eventURL, "timeout", timeout)
	return Subscription{SID: sid, Timeout: timeout}, nil
}

// Unsubscribe cancels a subscription on the device and stops renewing it.
func (c *Client) Unsubscribe(ctx context.Context, sid string) error {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	if ok {
		delete(c.subs, sid)
		sub.stopRenewal()
	}
	c.dropParkedLocked(sid)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, sid)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", sub.eventURL, nil)
	if err != nil {
		return fmt.Errorf("building unsubscribe request: %w", err)
	}
	setRawHeader(req.Header, "SID", sid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("unsubscribing %s: %w", sid, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s unsubscribing %s", ErrUnexpectedStatus, resp.Status, sid)
	}
	return nil
}

// SubscriptionCount returns the number of live subscriptions.
func (c *Client) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// scheduleRenewal arms the renewal timer. Caller must hold c.mu.
func (c *Client) scheduleRenewal(sub *subscription) {
	if sub.timeout <= 0 {
		return
	}
	delay := sub.timeout * renewalNumerator / renewalDenominator
	if delay < minRenewalDelay {
		delay = minRenewalDelay
	}
	sid := sub.sid
	sub.timer = time.AfterFunc(delay, func() { c.renew(sid) })
}

// renew re-subscribes with the existing SID. On failure the subscription
// is forgotten and the handler is told.
func (c *Client) renew(sid string) {
	c.mu.Lock()
	sub, ok := c.subs[sid]
	closed := c.closed
	c.mu.Unlock()
	if !ok || closed {
		return
	}

	timeout, err := c.sendRenewal(sub)
	if err == nil {
		c.mu.Lock()
		if current, ok := c.subs[sid]; ok && current == sub {
			sub.timeout = timeout
			c.scheduleRenewal(sub)
		}
		c.mu.Unlock()
		c.logger.Debug("subscription renewed", "sid", sid, "timeout", timeout)
		return
	}

	c.mu.Lock()
	current, ok := c.subs[sid]
	if ok && current == sub {
		delete(c.subs, sid)
	}
	c.mu.Unlock()
	if !ok || current != sub {
		// Unsubscribed while the renewal was in flight.
		return
	}

	c.logger.Warn("subscription renewal failed", "sid", sid, "error", err)
	c.handler.OnSubscriptionRenewalFailed(sid)
}

func (c *Client) sendRenewal(sub *subscription) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", sub.eventURL, nil)
	if err != nil {
		return 0, err
	}
	setRawHeader(req.Header, "SID", sub.sid)
	setRawHeader(req.Header, "TIMEOUT", formatTimeout(c.subTimeout))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return parseTimeout(resp.Header.Get("TIMEOUT"), c.subTimeout), nil
}

// callbackURL builds the CALLBACK address a device at eventURL can reach.
func (c *Client) callbackURL(eventURL string) (string, error) {
	host := c.cfg.CallbackHost
	if host == "" {
		u, err := url.Parse(eventURL)
		if err != nil {
			return "", fmt.Errorf("parsing event URL: %w", err)
		}
		host, err = localAddressFor(u)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("http://%s/events/%s",
		net.JoinHostPort(host, strconv.Itoa(c.callbackPort)), c.token), nil
}

// localAddressFor returns the local IP the kernel would use to reach u.
// Dialling UDP sends no packets.
func localAddressFor(u *url.URL) (string, error) {
	port := u.Port()
	if port == "" {
		port = "80"
	}
	conn, err := net.Dial("udp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return "", fmt.Errorf("finding local address for %s: %w", u.Host, err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

func formatTimeout(d time.Duration) string {
	return "Second-" + strconv.Itoa(int(d/time.Second))
}

// parseTimeout reads a GENA TIMEOUT header ("Second-1800" or
// "Second-infinite"). Unparseable values fall back to def.
func parseTimeout(header string, def time.Duration) time.Duration {
	v := strings.TrimSpace(header)
	if len(v) < len("Second-") || !strings.EqualFold(v[:len("Second-")], "Second-") {
		return def
	}
	v = v[len("Second-"):]
	if strings.EqualFold(v, "infinite") {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}
