package mqtt

import (
	"encoding/json"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Values of the retained message on Topics.SystemStatus.
const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonShutdown   = "shutdown"
	reasonUnexpected = "connection_lost"
)

// StatusMessage is the retained payload on Topics.SystemStatus.
type StatusMessage struct {
	Status    string `json:"status"`
	Display   string `json:"display"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusPayload encodes a status message stamped with the current time.
func statusPayload(display, status, reason string) []byte {
	payload, _ := json.Marshal(StatusMessage{ //nolint:errcheck // strings only
		Status:    status,
		Display:   display,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return payload
}

// publishStatus publishes the display's status and returns the pending token.
func (c *Client) publishStatus(status, reason string) pahomqtt.Token {
	payload := statusPayload(c.cfg.Broker.ClientID, status, reason)
	return c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true, payload)
}
