package nowplaying

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/upnp-display/internal/display"
	"github.com/nerrad567/upnp-display/internal/renderer"
)

// Publisher is the part of the MQTT client the publishers need.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// MQTTPublisher keeps a retained now-playing message on the broker.
// A message is published for the first sample, then whenever the sample
// changes (see Changed) or the volume or mute state moves.
type MQTTPublisher struct {
	pub    Publisher
	topic  string
	logger Logger

	last    display.RenderInfo
	have    bool
	failing bool
}

// NewMQTTPublisher creates a publisher writing to topic.
func NewMQTTPublisher(pub Publisher, topic string, logger Logger) *MQTTPublisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTPublisher{pub: pub, topic: topic, logger: logger}
}

// OnStart implements display.Subscriber.
func (p *MQTTPublisher) OnStart() {}

// OnRenderInfo implements display.Subscriber.
func (p *MQTTPublisher) OnRenderInfo(info display.RenderInfo) {
	if p.have && !Changed(p.last, info) &&
		p.last.Volume == info.Volume && p.last.Muted == info.Muted {
		return
	}
	// A failed publish leaves last untouched so the next tick retries.
	if p.publish(NewMessage(info)) {
		p.last = info
		p.have = true
	}
}

// OnSaveScreen implements display.Subscriber.
func (p *MQTTPublisher) OnSaveScreen() {}

// OnExit implements display.Subscriber.
func (p *MQTTPublisher) OnExit() {
	p.publish(OfflineMessage())
}

func (p *MQTTPublisher) publish(msg Message) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("encoding now-playing message", "error", err)
		return false
	}
	if err := p.pub.PublishRetained(p.topic, payload); err != nil {
		if !p.failing {
			p.logger.Warn("publishing now-playing failed", "topic", p.topic, "error", err)
		}
		p.failing = true
		return false
	}
	if p.failing {
		p.logger.Info("publishing now-playing recovered", "topic", p.topic)
	}
	p.failing = false
	return true
}

// Presence states.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// PresenceMessage is published retained when a renderer comes or goes.
type PresenceMessage struct {
	Status    string `json:"status"`
	UUID      string `json:"uuid"`
	Name      string `json:"name,omitempty"`
	Timestamp string `json:"timestamp"`
}

// PresencePublisher announces renderer presence. It implements
// controller.Observer and publishes inline, so it must be wrapped in
// controller.NewAsyncObserver.
type PresencePublisher struct {
	pub    Publisher
	topic  func(uuid string) string
	logger Logger
	now    func() time.Time
}

// NewPresencePublisher creates a PresencePublisher. topic maps a renderer
// UUID to its presence topic.
func NewPresencePublisher(pub Publisher, topic func(uuid string) string, logger Logger) *PresencePublisher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PresencePublisher{pub: pub, topic: topic, logger: logger, now: time.Now}
}

// AddRenderer implements controller.Observer.
func (p *PresencePublisher) AddRenderer(uuid string, r renderer.View) {
	msg := PresenceMessage{Status: PresenceOnline, UUID: uuid}
	if r != nil {
		msg.Name = r.FriendlyName()
	}
	p.publish(msg)
}

// RemoveRenderer implements controller.Observer.
func (p *PresencePublisher) RemoveRenderer(uuid string) {
	p.publish(PresenceMessage{Status: PresenceOffline, UUID: uuid})
}

func (p *PresencePublisher) publish(msg PresenceMessage) {
	msg.Timestamp = p.now().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("encoding presence message", "error", err)
		return
	}
	if err := p.pub.PublishRetained(p.topic(msg.UUID), payload); err != nil {
		p.logger.Warn("publishing presence failed", "uuid", msg.UUID, "status", msg.Status, "error", err)
	}
}
