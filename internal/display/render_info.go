package display

import "github.com/nerrad567/upnp-display/internal/renderer"

// PlayState is the transport state shown on the display.
type PlayState int

// Play states. The zero value is Stopped.
const (
	Stopped PlayState = iota
	Paused
	Playing
)

// ParsePlayState maps an AVTransport TransportState value. Anything not
// recognised, including TRANSITIONING and NO_MEDIA_PRESENT, is Stopped.
func ParsePlayState(transportState string) PlayState {
	switch transportState {
	case renderer.StatePlaying:
		return Playing
	case renderer.StatePaused:
		return Paused
	default:
		return Stopped
	}
}

// String returns the TransportState spelling of s.
func (s PlayState) String() string {
	switch s {
	case Playing:
		return renderer.StatePlaying
	case Paused:
		return renderer.StatePaused
	default:
		return renderer.StateStopped
	}
}

// RenderInfo is one sample of what the selected renderer is doing.
type RenderInfo struct {
	// IsWaitingForRenderer is set when nothing is selected. PlayerName
	// then holds the configured match filter and every other field is
	// meaningless.
	IsWaitingForRenderer bool

	PlayState PlayState
	Volume    string
	Muted     bool

	// Time is the playback position (or track length) in seconds.
	Time int

	PlayerName string
	UUID       string
	Title      string
	Composer   string
	Artist     string
	Album      string
}
