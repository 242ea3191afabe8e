package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementPlayback    = "playback"
	MeasurementTrackChange = "track_change"
)

// Playback is one sample of a renderer's transport state.
type Playback struct {
	RendererUUID string
	Player       string
	State        string
	Volume       string
	Muted        bool
	Position     int // seconds
}

// Track identifies what a renderer started playing.
type Track struct {
	RendererUUID string
	Player       string
	Title        string
	Artist       string
	Composer     string
	Album        string
}

// WritePlayback records a transport state sample.
//
// Example:
//
//	client.WritePlayback(influxdb.Playback{
//	    RendererUUID: "uuid:5e8f...", Player: "Living Room",
//	    State: "PLAYING", Volume: "25", Position: 65,
//	}, time.Now())
func (c *Client) WritePlayback(p Playback, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(playbackPoint(p, at))
}

// WriteTrackChange records the start of a new track.
func (c *Client) WriteTrackChange(t Track, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(trackPoint(t, at))
}

func playbackPoint(p Playback, at time.Time) *write.Point {
	fields := map[string]interface{}{
		"state":      p.State,
		"muted":      p.Muted,
		"position_s": int64(p.Position),
	}
	// Volume is a ui2 in RenderingControl; skip values that are not.
	if v, err := strconv.ParseInt(p.Volume, 10, 64); err == nil {
		fields["volume"] = v
	}
	return write.NewPoint(MeasurementPlayback, rendererTags(p.RendererUUID, p.Player), fields, at)
}

func trackPoint(t Track, at time.Time) *write.Point {
	fields := map[string]interface{}{"title": t.Title}
	for key, value := range map[string]string{
		"artist":   t.Artist,
		"composer": t.Composer,
		"album":    t.Album,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return write.NewPoint(MeasurementTrackChange, rendererTags(t.RendererUUID, t.Player), fields, at)
}

func rendererTags(uuid, player string) map[string]string {
	return map[string]string{
		"renderer_uuid": uuid,
		"player":        player,
	}
}
