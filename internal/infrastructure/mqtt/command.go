package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// HandleCommand subscribes handler to topic at the configured QoS. The
// subscription is restored after every reconnect.
//
// Example:
//
//	err := client.HandleCommand(mqtt.Topics{}.SelectCommand("kitchen"),
//	    func(payload []byte) error {
//	        sampler.Select(string(payload))
//	        return nil
//	    })
func (c *Client) HandleCommand(topic string, handler CommandHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, topic)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.paho.Subscribe(topic, byte(c.cfg.QoS), c.dispatch(handler))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrSubscribeFailed, topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}

	c.mu.Lock()
	c.commands[topic] = handler
	c.mu.Unlock()
	return nil
}

// dispatch adapts a CommandHandler to paho, logging errors and panics.
func (c *Client) dispatch(handler CommandHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log().Error("MQTT command handler panicked", "topic", msg.Topic(), "panic", r)
			}
		}()

		if err := handler(msg.Payload()); err != nil {
			c.log().Warn("MQTT command rejected", "topic", msg.Topic(), "error", err)
		}
	}
}
