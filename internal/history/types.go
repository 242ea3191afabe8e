package history

import "time"

// Renderer is one catalogue row.
type Renderer struct {
	UUID         string    `json:"uuid"`
	FriendlyName string    `json:"friendly_name"`
	Location     string    `json:"location"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	Online       bool      `json:"online"`
}

// Play is one play-log row, written when the selected renderer changes track.
type Play struct {
	ID           int64     `json:"id"`
	RendererUUID string    `json:"renderer_uuid"`
	Player       string    `json:"player"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist,omitempty"`
	Composer     string    `json:"composer,omitempty"`
	Album        string    `json:"album,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// PlayFilter narrows ListPlays. Zero values match everything.
type PlayFilter struct {
	RendererUUID string
	Limit        int
}

// DefaultPlayLimit caps ListPlays when the filter sets no limit.
const DefaultPlayLimit = 50
