package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AVTransportServicePrefix matches every AVTransport service version.
const AVTransportServicePrefix = "urn:schemas-upnp-org:service:AVTransport:"

// PositionInfo is the result of AVTransport GetPositionInfo.
type PositionInfo struct {
	Track         string `xml:"Track"`
	TrackDuration string `xml:"TrackDuration"`
	TrackMetaData string `xml:"TrackMetaData"`
	TrackURI      string `xml:"TrackURI"`
	RelTime       string `xml:"RelTime"`
	AbsTime       string `xml:"AbsTime"`
}

type positionEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Info    PositionInfo `xml:"Body>GetPositionInfoResponse"`
}

type faultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Fault   struct {
		FaultString string `xml:"faultstring"`
		Code        string `xml:"detail>UPnPError>errorCode"`
		Description string `xml:"detail>UPnPError>errorDescription"`
	} `xml:"Body>Fault"`
}

// GetPositionInfo asks an AVTransport service for the playback position
// of instance 0.
func (c *Client) GetPositionInfo(ctx context.Context, controlURL, serviceType string) (PositionInfo, error) {
	if serviceType == "" {
		serviceType = AVTransportServicePrefix + "1"
	}

	body, err := c.invoke(ctx, controlURL, serviceType, "GetPositionInfo", "<InstanceID>0</InstanceID>")
	if err != nil {
		return PositionInfo{}, err
	}

	var env positionEnvelope
	if err := UnmarshalXML(body, &env); err != nil {
		return PositionInfo{}, fmt.Errorf("decoding GetPositionInfo response: %w", err)
	}
	return env.Info, nil
}

// invoke posts a SOAP action and returns the response body.
func (c *Client) invoke(ctx context.Context, controlURL, serviceType, action, args string) ([]byte, error) {
	var envelope bytes.Buffer
	envelope.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	envelope.WriteString(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body>`)
	fmt.Fprintf(&envelope, `<u:%s xmlns:u="%s">%s</u:%s>`, action, serviceType, args, action)
	envelope.WriteString(`</s:Body></s:Envelope>`)

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, &envelope)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	setRawHeader(req.Header, "SOAPACTION", fmt.Sprintf(`"%s#%s"`, serviceType, action))
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoking %s: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", action, err)
	}

	if resp.StatusCode != http.StatusOK {
		var fault faultEnvelope
		if resp.StatusCode == http.StatusInternalServerError && UnmarshalXML(body, &fault) == nil {
			return nil, fmt.Errorf("%w: %s %s %s", ErrSOAPFault, action,
				fault.Fault.Code, strings.TrimSpace(fault.Fault.Description))
		}
		return nil, fmt.Errorf("%w: %s from %s", ErrUnexpectedStatus, resp.Status, action)
	}
	return body, nil
}
