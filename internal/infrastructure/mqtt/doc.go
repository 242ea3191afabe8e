// Package mqtt connects the display to an MQTT broker.
//
// The display publishes what it is showing so home automation and
// dashboards can follow along, and accepts a renderer selection command:
//
//	upnp-display ──► broker ──► dashboards, automations
//	     ▲
//	     └── upnpdisplay/command/{display}/select
//
// Everything the display publishes is retained. A status message on
// upnpdisplay/system/status reads online while connected, offline after
// Close, and is replaced by the broker with an LWT if the process dies.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.NowPlaying(cfg.MQTT.Broker.ClientID)
//	err = client.PublishRetained(topic, payload)
package mqtt
