package nowplaying

import (
	"github.com/nerrad567/upnp-display/internal/display"
)

// OfflineState is the play state published when the display exits.
const OfflineState = "OFFLINE"

// Message is the JSON form of a display.RenderInfo.
type Message struct {
	Ready     bool   `json:"ready"`
	Player    string `json:"player"`
	UUID      string `json:"uuid,omitempty"`
	PlayState string `json:"play_state"`
	Title     string `json:"title"`
	Composer  string `json:"composer"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	Volume    string `json:"volume"`
	Muted     bool   `json:"muted"`
	Time      int    `json:"time"`
}

// NewMessage converts a sample. A waiting sample is not ready and names
// the renderer filter as its player.
func NewMessage(info display.RenderInfo) Message {
	if info.IsWaitingForRenderer {
		return Message{Player: info.PlayerName, PlayState: display.Stopped.String()}
	}
	return Message{
		Ready:     true,
		Player:    info.PlayerName,
		UUID:      info.UUID,
		PlayState: info.PlayState.String(),
		Title:     info.Title,
		Composer:  info.Composer,
		Artist:    info.Artist,
		Album:     info.Album,
		Volume:    info.Volume,
		Muted:     info.Muted,
		Time:      info.Time,
	}
}

// OfflineMessage is published once the display has stopped.
func OfflineMessage() Message {
	return Message{PlayState: OfflineState}
}

// Changed reports whether b differs from a in anything worth announcing:
// waiting status, play state, or the track metadata. Position and volume
// are ignored.
func Changed(a, b display.RenderInfo) bool {
	return a.IsWaitingForRenderer != b.IsWaitingForRenderer ||
		a.PlayerName != b.PlayerName ||
		a.PlayState != b.PlayState ||
		trackChanged(a, b)
}

// trackChanged reports a different track, or the same track on another renderer.
func trackChanged(a, b display.RenderInfo) bool {
	return a.UUID != b.UUID ||
		a.Title != b.Title ||
		a.Composer != b.Composer ||
		a.Artist != b.Artist ||
		a.Album != b.Album
}
