package upnp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	ssdpAddr = "239.255.255.250:1900"

	// MediaRendererSearchTarget is the ST used for M-SEARCH.
	MediaRendererSearchTarget = "urn:schemas-upnp-org:device:MediaRenderer:1"

	searchMX        = 2
	maxDatagramSize = 8192
)

type announcementKind int

const (
	announceAlive announcementKind = iota
	announceByebye
)

// announcement is a parsed SSDP NOTIFY or M-SEARCH response.
type announcement struct {
	kind       announcementKind
	deviceType string
	uuid       string
	location   string
}

// uuidFromUSN extracts the device identity from a USN such as
// "uuid:1234::urn:schemas-upnp-org:device:MediaRenderer:1".
func uuidFromUSN(usn string) string {
	usn = strings.TrimSpace(usn)
	if i := strings.Index(usn, "::"); i >= 0 {
		usn = usn[:i]
	}
	return usn
}

// parseNotify parses an SSDP NOTIFY datagram.
func parseNotify(data []byte) (announcement, bool) {
	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(data)))
	if err != nil || req.Method != "NOTIFY" {
		return announcement{}, false
	}

	a := announcement{
		deviceType: strings.TrimSpace(req.Header.Get("NT")),
		uuid:       uuidFromUSN(req.Header.Get("USN")),
		location:   strings.TrimSpace(req.Header.Get("LOCATION")),
	}
	if a.uuid == "" {
		return announcement{}, false
	}

	switch req.Header.Get("NTS") {
	case "ssdp:alive":
		a.kind = announceAlive
		if a.location == "" {
			return announcement{}, false
		}
	case "ssdp:byebye":
		a.kind = announceByebye
	default:
		return announcement{}, false
	}
	return a, true
}

// parseSearchResponse parses a unicast M-SEARCH reply. Replies are
// treated as alive announcements.
func parseSearchResponse(data []byte) (announcement, bool) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return announcement{}, false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return announcement{}, false
	}

	a := announcement{
		kind:       announceAlive,
		deviceType: strings.TrimSpace(resp.Header.Get("ST")),
		uuid:       uuidFromUSN(resp.Header.Get("USN")),
		location:   strings.TrimSpace(resp.Header.Get("LOCATION")),
	}
	if a.uuid == "" || a.location == "" {
		return announcement{}, false
	}
	return a, true
}

func searchRequest(target string) []byte {
	return []byte(fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"MX: %d\r\n"+
		"ST: %s\r\n"+
		"USER-AGENT: %s\r\n\r\n", ssdpAddr, searchMX, target, userAgent))
}

// announce forwards an announcement to the handler on its own goroutine;
// alive handling performs network requests and must not stall the reader.
func (c *Client) announce(ctx context.Context, a announcement) {
	if ctx.Err() != nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("panic in discovery handler", "uuid", a.uuid, "panic", r)
			}
		}()
		switch a.kind {
		case announceAlive:
			c.handler.OnDiscoveryAlive(a.deviceType, a.uuid, a.location)
		case announceByebye:
			c.handler.OnDiscoveryByebye(a.uuid)
		}
	}()
}

// listenNotify joins the SSDP multicast group and processes NOTIFYs
// until ctx is cancelled.
func (c *Client) listenNotify(ctx context.Context) {
	group, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		c.logger.Error("resolving ssdp address", "error", err)
		return
	}

	var ifi *net.Interface
	if c.cfg.Interface != "" {
		ifi, err = net.InterfaceByName(c.cfg.Interface)
		if err != nil {
			c.logger.Error("ssdp interface not found", "interface", c.cfg.Interface, "error", err)
			return
		}
	}

	conn, err := net.ListenMulticastUDP("udp4", ifi, group)
	if err != nil {
		c.logger.Warn("ssdp multicast listen failed, relying on search only", "error", err)
		return
	}
	if err := conn.SetReadBuffer(maxDatagramSize * 16); err != nil {
		c.logger.Debug("setting ssdp read buffer", "error", err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("ssdp read failed", "error", err)
			}
			return
		}
		if a, ok := parseNotify(buf[:n]); ok {
			c.announce(ctx, a)
		}
	}
}

// searchLoop sends an M-SEARCH now and then every search interval.
func (c *Client) searchLoop(ctx context.Context) {
	c.search(ctx)

	interval := c.cfg.GetSearchInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.search(ctx)
		}
	}
}

// search multicasts one M-SEARCH and collects replies for MX+1 seconds.
func (c *Client) search(ctx context.Context) {
	group, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		c.logger.Error("resolving ssdp address", "error", err)
		return
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		c.logger.Warn("opening search socket", "error", err)
		return
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP(searchRequest(MediaRendererSearchTarget), group); err != nil {
		c.logger.Warn("sending m-search", "error", err)
		return
	}

	deadline := time.Now().Add((searchMX + 1) * time.Second)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return
	}

	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if a, ok := parseSearchResponse(buf[:n]); ok {
			c.announce(ctx, a)
		}
	}
}
