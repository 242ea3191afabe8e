package upnp

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxDescriptionSize caps description and control response bodies.
const maxDescriptionSize = 1 << 20

// Service is one entry of a device's serviceList.
type Service struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	SCPDURL     string `xml:"SCPDURL"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
}

// Device is a root or embedded device from a description document.
type Device struct {
	DeviceType   string    `xml:"deviceType"`
	FriendlyName string    `xml:"friendlyName"`
	UDN          string    `xml:"UDN"`
	Manufacturer string    `xml:"manufacturer"`
	ModelName    string    `xml:"modelName"`
	Services     []Service `xml:"serviceList>service"`
	Devices      []Device  `xml:"deviceList>device"`
}

// Description is a parsed UPnP device description.
type Description struct {
	XMLName xml.Name `xml:"root"`
	URLBase string   `xml:"URLBase"`
	Device  Device   `xml:"device"`

	// BaseURL is URLBase when present, otherwise the scheme and host of
	// the location the description was fetched from.
	BaseURL *url.URL `xml:"-"`
}

// ParseDescription parses a description document fetched from location.
func ParseDescription(data []byte, location string) (*Description, error) {
	var d Description
	if err := UnmarshalXML(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDescription, err)
	}

	base, err := baseURL(strings.TrimSpace(d.URLBase), location)
	if err != nil {
		return nil, err
	}
	d.BaseURL = base
	return &d, nil
}

func baseURL(urlBase, location string) (*url.URL, error) {
	if urlBase != "" {
		u, err := url.Parse(urlBase)
		if err == nil && u.Scheme != "" && u.Host != "" {
			return u, nil
		}
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: no usable base URL for location %q", ErrInvalidDescription, location)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

// FriendlyName returns the root device's friendly name.
func (d *Description) FriendlyName() string {
	return strings.TrimSpace(d.Device.FriendlyName)
}

// Services returns the services of the root device and all embedded
// devices, depth first.
func (d *Description) Services() []Service {
	var out []Service
	var walk func(dev *Device)
	walk = func(dev *Device) {
		out = append(out, dev.Services...)
		for i := range dev.Devices {
			walk(&dev.Devices[i])
		}
	}
	walk(&d.Device)
	return out
}

// ResolveURL resolves a (possibly relative) service URL against BaseURL.
func (d *Description) ResolveURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty service URL", ErrInvalidDescription)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: service URL %q: %v", ErrInvalidDescription, ref, err)
	}
	if d.BaseURL == nil {
		return u.String(), nil
	}
	return d.BaseURL.ResolveReference(u).String(), nil
}

// FetchDescription downloads and parses the description at location.
func (c *Client) FetchDescription(ctx context.Context, location string) (*Description, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("building description request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching description: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, location)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
	if err != nil {
		return nil, fmt.Errorf("reading description: %w", err)
	}
	return ParseDescription(data, location)
}
