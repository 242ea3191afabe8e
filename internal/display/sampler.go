package display

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/upnp-display/internal/renderer"
)

// DefaultInterval is the display refresh period. It also sets the scroll
// speed and the pause blink rate.
const DefaultInterval = 400 * time.Millisecond

// Logger defines the logging interface used by the Sampler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	// MatchName selects a renderer by friendly name or UUID. Empty
	// selects the first renderer seen.
	MatchName string

	// Interval between samples. Zero means DefaultInterval.
	Interval time.Duration

	// ScreensaverTimeout blanks the display when the selected renderer
	// sends no events for this long. Zero disables it.
	ScreensaverTimeout time.Duration

	// ReselectOnRemove picks another known renderer when the selected
	// one goes away, instead of waiting for the next announcement.
	ReselectOnRemove bool
}

// Sampler decides which renderer is shown and samples it on a fixed
// cadence for its subscribers. It implements controller.Observer.
//
// All public methods are thread-safe.
type Sampler struct {
	opts SamplerOptions
	subs []Subscriber

	mu           sync.Mutex
	selectedUUID string
	selected     renderer.View
	selectedAt   time.Time
	known        map[string]renderer.View

	now    func() time.Time
	logger Logger
}

// NewSampler creates a sampler feeding subs.
func NewSampler(opts SamplerOptions, subs ...Subscriber) *Sampler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Sampler{
		opts:   opts,
		subs:   subs,
		known:  make(map[string]renderer.View),
		now:    time.Now,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the sampler.
func (s *Sampler) SetLogger(logger Logger) {
	s.logger = logger
}

// AddRenderer implements controller.Observer. The renderer is selected
// if nothing is selected yet and it matches the filter.
func (s *Sampler) AddRenderer(uuid string, r renderer.View) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.known[uuid] = r
	s.logger.Info("renderer connected", "uuid", uuid, "name", r.FriendlyName())

	if s.selected == nil && s.matches(uuid, r) {
		s.selectLocked(uuid, r)
	}
}

// RemoveRenderer implements controller.Observer.
func (s *Sampler) RemoveRenderer(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.known, uuid)
	s.logger.Info("renderer disconnected", "uuid", uuid)

	if s.selectedUUID != uuid {
		return
	}
	s.selected = nil
	s.selectedUUID = ""

	if s.opts.ReselectOnRemove {
		s.reselectLocked()
	}
}

// Select replaces the name filter at runtime. The current renderer stays
// selected if it still matches; otherwise the first matching known
// renderer, in UUID order, takes over.
func (s *Sampler) Select(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opts.MatchName = name
	s.logger.Info("renderer filter changed", "filter", name)

	if s.selected != nil && s.matches(s.selectedUUID, s.selected) {
		return
	}
	s.selected = nil
	s.selectedUUID = ""
	s.reselectLocked()
}

func (s *Sampler) reselectLocked() {
	uuids := make([]string, 0, len(s.known))
	for id := range s.known {
		uuids = append(uuids, id)
	}
	sort.Strings(uuids)
	for _, id := range uuids {
		if r := s.known[id]; s.matches(id, r) {
			s.selectLocked(id, r)
			return
		}
	}
}

func (s *Sampler) selectLocked(uuid string, r renderer.View) {
	s.selectedUUID = uuid
	s.selected = r
	s.selectedAt = s.now()
	s.logger.Info("renderer selected", "uuid", uuid, "name", r.FriendlyName())
}

// matches applies the name filter. A UUID may be given with or without
// its "uuid:" prefix.
func (s *Sampler) matches(uuid string, r renderer.View) bool {
	filter := s.opts.MatchName
	return filter == "" ||
		filter == uuid ||
		filter == strings.TrimPrefix(uuid, "uuid:") ||
		filter == r.FriendlyName()
}

// Selected returns the UUID of the selected renderer.
func (s *Sampler) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedUUID, s.selected != nil
}

// Sample reads the selected renderer into a RenderInfo.
func (s *Sampler) Sample() RenderInfo {
	info, _ := s.sample()
	return info
}

// sample also returns when the selected renderer was last active.
func (s *Sampler) sample() (RenderInfo, time.Time) {
	s.mu.Lock()
	uuid, r, selectedAt, filter := s.selectedUUID, s.selected, s.selectedAt, s.opts.MatchName
	s.mu.Unlock()

	if r == nil {
		return RenderInfo{IsWaitingForRenderer: true, PlayerName: filter}, time.Time{}
	}

	info := RenderInfo{
		PlayerName: r.FriendlyName(),
		UUID:       uuid,
		Title:      r.GetVariable(renderer.MetaTitle),
		Composer:   r.GetVariable(renderer.MetaComposer),
		Artist:     r.GetVariable(renderer.MetaArtist),
		Album:      r.GetVariable(renderer.MetaAlbum),
		PlayState:  ParsePlayState(r.GetVariable(renderer.VarTransportState)),
		Volume:     r.GetVariable(renderer.VarVolume),
	}

	// Some servers put the performer only in dc:creator.
	creator := r.GetVariable(renderer.MetaCreator)
	if info.Artist == info.Composer && info.Artist != "" && creator != "" && creator != info.Artist {
		info.Artist = creator
	}

	switch r.GetVariable(renderer.VarMute) {
	case "1", "true", "True", "TRUE":
		info.Muted = true
	}

	if t, ok := parseTime(r.GetVariable(renderer.VarRelativeTimePosition)); ok {
		info.Time = t
	} else {
		info.Time, _ = parseTime(r.GetVariable(renderer.VarCurrentTrackDuration))
	}

	active := r.LastUpdateTime()
	if active.Before(selectedAt) {
		active = selectedAt
	}
	return info, active
}

// Tick takes one sample and hands it to the subscribers, or tells them
// to save the screen if the renderer has been idle too long.
func (s *Sampler) Tick() {
	info, active := s.sample()

	if s.opts.ScreensaverTimeout > 0 && !info.IsWaitingForRenderer &&
		s.now().Sub(active) > s.opts.ScreensaverTimeout {
		for _, sub := range s.subs {
			sub.OnSaveScreen()
		}
		return
	}

	for _, sub := range s.subs {
		sub.OnRenderInfo(info)
	}
}

// Run samples every interval until ctx is cancelled, then lets the
// subscribers say goodbye.
func (s *Sampler) Run(ctx context.Context) {
	for _, sub := range s.subs {
		sub.OnStart()
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, sub := range s.subs {
				sub.OnExit()
			}
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// parseTime converts an H:MM:SS[.fraction] duration to seconds.
func parseTime(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	if i := strings.IndexByte(parts[2], '.'); i >= 0 {
		parts[2] = parts[2][:i]
	}

	var total int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
