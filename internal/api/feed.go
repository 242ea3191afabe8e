package api

import (
	"github.com/nerrad567/upnp-display/internal/display"
	"github.com/nerrad567/upnp-display/internal/nowplaying"
)

// Feed is a display.Subscriber that broadcasts on ChannelNowPlaying
// whenever the sample changes. Broadcast never blocks, so Feed can be
// registered with the sampler directly.
type Feed struct {
	hub  *Hub
	last display.RenderInfo
	have bool
}

// NewFeed creates a Feed broadcasting through hub.
func NewFeed(hub *Hub) *Feed {
	return &Feed{hub: hub}
}

// OnStart implements display.Subscriber.
func (f *Feed) OnStart() {}

// OnRenderInfo implements display.Subscriber.
func (f *Feed) OnRenderInfo(info display.RenderInfo) {
	if f.have && !nowplaying.Changed(f.last, info) {
		return
	}
	f.last = info
	f.have = true
	f.hub.Broadcast(ChannelNowPlaying, nowplaying.NewMessage(info))
}

// OnSaveScreen implements display.Subscriber.
func (f *Feed) OnSaveScreen() {}

// OnExit implements display.Subscriber.
func (f *Feed) OnExit() {
	f.hub.Broadcast(ChannelNowPlaying, nowplaying.OfflineMessage())
}
