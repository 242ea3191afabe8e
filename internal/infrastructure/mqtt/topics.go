package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every topic the display uses.
const TopicPrefix = "upnpdisplay"

// Topics provides builders for the display's MQTT topics:
//
//	upnpdisplay/system/status                 online/offline, retained, LWT
//	upnpdisplay/nowplaying/{display}          now-playing JSON, retained
//	upnpdisplay/renderer/{uuid}/presence      renderer online/offline, retained
//	upnpdisplay/command/{display}/select      renderer name or uuid to show
//
// {display} is the broker client ID, so several displays can share a broker.
type Topics struct{}

// SystemStatus returns the display's status topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// NowPlaying returns the topic carrying what a display is showing.
//
// Example: upnpdisplay/nowplaying/kitchen-display
func (Topics) NowPlaying(display string) string {
	return fmt.Sprintf("%s/nowplaying/%s", TopicPrefix, Segment(display))
}

// RendererPresence returns the presence topic of a renderer.
//
// Example: upnpdisplay/renderer/uuid:5e8f.../presence
func (Topics) RendererPresence(uuid string) string {
	return fmt.Sprintf("%s/renderer/%s/presence", TopicPrefix, Segment(uuid))
}

// SelectCommand returns the topic on which a display accepts a new
// renderer filter.
//
// Example: upnpdisplay/command/kitchen-display/select
func (Topics) SelectCommand(display string) string {
	return fmt.Sprintf("%s/command/%s/select", TopicPrefix, Segment(display))
}

// segmentReplacer removes characters that would change a topic's levels.
var segmentReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// Segment makes s safe to use as a single topic level.
func Segment(s string) string {
	if s == "" {
		return "_"
	}
	return segmentReplacer.Replace(s)
}
