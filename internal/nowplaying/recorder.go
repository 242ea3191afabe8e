package nowplaying

import (
	"context"
	"time"

	"github.com/nerrad567/upnp-display/internal/display"
	"github.com/nerrad567/upnp-display/internal/history"
	"github.com/nerrad567/upnp-display/internal/infrastructure/influxdb"
)

// DefaultPlaybackInterval is how often an unchanged playing renderer is
// sampled into InfluxDB.
const DefaultPlaybackInterval = 30 * time.Second

// PointWriter is the part of the InfluxDB client HistoryRecorder needs.
type PointWriter interface {
	WritePlayback(p influxdb.Playback, at time.Time)
	WriteTrackChange(t influxdb.Track, at time.Time)
}

// HistoryRecorder writes playback samples and track changes to InfluxDB.
// A playback point is written when the play state, volume or mute state
// changes, and every interval while playing. A track-change point is
// written when a titled track starts. Waiting samples write nothing.
type HistoryRecorder struct {
	w        PointWriter
	interval time.Duration
	now      func() time.Time

	last        display.RenderInfo
	have        bool
	lastWritten time.Time
}

// NewHistoryRecorder creates a recorder. A zero interval means
// DefaultPlaybackInterval.
func NewHistoryRecorder(w PointWriter, interval time.Duration) *HistoryRecorder {
	if interval <= 0 {
		interval = DefaultPlaybackInterval
	}
	return &HistoryRecorder{w: w, interval: interval, now: time.Now}
}

// OnStart implements display.Subscriber.
func (h *HistoryRecorder) OnStart() {}

// OnRenderInfo implements display.Subscriber.
func (h *HistoryRecorder) OnRenderInfo(info display.RenderInfo) {
	if info.IsWaitingForRenderer {
		h.have = false
		return
	}
	now := h.now()

	if info.Title != "" && (!h.have || trackChanged(h.last, info)) {
		h.w.WriteTrackChange(influxdb.Track{
			RendererUUID: info.UUID,
			Player:       info.PlayerName,
			Title:        info.Title,
			Artist:       info.Artist,
			Composer:     info.Composer,
			Album:        info.Album,
		}, now)
	}

	stateChanged := !h.have ||
		h.last.UUID != info.UUID ||
		h.last.PlayState != info.PlayState ||
		h.last.Volume != info.Volume ||
		h.last.Muted != info.Muted
	due := info.PlayState == display.Playing && now.Sub(h.lastWritten) >= h.interval
	if stateChanged || due {
		h.w.WritePlayback(influxdb.Playback{
			RendererUUID: info.UUID,
			Player:       info.PlayerName,
			State:        info.PlayState.String(),
			Volume:       info.Volume,
			Muted:        info.Muted,
			Position:     info.Time,
		}, now)
		h.lastWritten = now
	}

	h.last = info
	h.have = true
}

// OnSaveScreen implements display.Subscriber.
func (h *HistoryRecorder) OnSaveScreen() {}

// OnExit implements display.Subscriber.
func (h *HistoryRecorder) OnExit() {}

// PlayRecorder is the part of history.Repository PlayLog needs.
type PlayRecorder interface {
	RecordPlay(ctx context.Context, p *history.Play) error
}

// playLogTimeout bounds one play-log insert.
const playLogTimeout = 5 * time.Second

// PlayLog appends a play-log row each time a titled track starts on the
// selected renderer. Pausing and resuming the same track is not a new play.
type PlayLog struct {
	repo   PlayRecorder
	logger Logger
	now    func() time.Time

	last display.RenderInfo
	have bool
}

// NewPlayLog creates a PlayLog writing to repo.
func NewPlayLog(repo PlayRecorder, logger Logger) *PlayLog {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PlayLog{repo: repo, logger: logger, now: time.Now}
}

// OnStart implements display.Subscriber.
func (l *PlayLog) OnStart() {}

// OnRenderInfo implements display.Subscriber.
func (l *PlayLog) OnRenderInfo(info display.RenderInfo) {
	if info.IsWaitingForRenderer {
		l.have = false
		return
	}
	isNew := !l.have || trackChanged(l.last, info)
	l.last = info
	l.have = true
	if !isNew || info.Title == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), playLogTimeout)
	defer cancel()
	play := &history.Play{
		RendererUUID: info.UUID,
		Player:       info.PlayerName,
		Title:        info.Title,
		Artist:       info.Artist,
		Composer:     info.Composer,
		Album:        info.Album,
		StartedAt:    l.now(),
	}
	if err := l.repo.RecordPlay(ctx, play); err != nil {
		l.logger.Warn("recording play failed", "uuid", info.UUID, "title", info.Title, "error", err)
		return
	}
	l.logger.Debug("play recorded", "id", play.ID, "title", info.Title)
}

// OnSaveScreen implements display.Subscriber.
func (l *PlayLog) OnSaveScreen() {}

// OnExit implements display.Subscriber.
func (l *PlayLog) OnExit() {}
