package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/upnp-display/internal/renderer"
	"github.com/nerrad567/upnp-display/internal/upnp"
)

// PositionSource performs AVTransport GetPositionInfo.
type PositionSource interface {
	GetPositionInfo(ctx context.Context, controlURL, serviceType string) (upnp.PositionInfo, error)
}

// Selection reports which renderer the display follows.
type Selection interface {
	Selected() (uuid string, ok bool)
}

// PositionPoller asks the selected renderer for its playback position,
// for renderers that do not event RelativeTimePosition.
type PositionPoller struct {
	registry  *Registry
	selection Selection
	source    PositionSource
	interval  time.Duration
	logger    Logger
}

// NewPositionPoller creates a poller running every interval.
func NewPositionPoller(registry *Registry, selection Selection, source PositionSource, interval time.Duration) *PositionPoller {
	return &PositionPoller{
		registry:  registry,
		selection: selection,
		source:    source,
		interval:  interval,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the poller.
func (p *PositionPoller) SetLogger(logger Logger) {
	p.logger = logger
}

// Run polls until ctx is cancelled.
func (p *PositionPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Debug("position poll failed", "error", err)
			}
		}
	}
}

// Poll queries the selected renderer once. Stopped renderers are skipped.
func (p *PositionPoller) Poll(ctx context.Context) error {
	uuid, ok := p.selection.Selected()
	if !ok {
		return nil
	}
	rec, ok := p.registry.Lookup(uuid)
	if !ok {
		return nil
	}

	switch rec.GetVariable(renderer.VarTransportState) {
	case renderer.StatePlaying, renderer.StatePaused:
	default:
		return nil
	}

	controlURL, serviceType, ok := rec.ControlURL(renderer.AVTransportPrefix)
	if !ok {
		return fmt.Errorf("%s: %w", uuid, ErrNoControlURL)
	}

	info, err := p.source.GetPositionInfo(ctx, controlURL, serviceType)
	if err != nil {
		return fmt.Errorf("polling %s: %w", uuid, err)
	}

	if info.RelTime != "" {
		rec.SetVariable(renderer.VarRelativeTimePosition, info.RelTime)
	}
	if info.TrackDuration != "" {
		rec.SetVariable(renderer.VarCurrentTrackDuration, info.TrackDuration)
	}
	return nil
}
