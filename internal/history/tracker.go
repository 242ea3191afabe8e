package history

import (
	"context"
	"time"

	"github.com/nerrad567/upnp-display/internal/renderer"
)

// writeTimeout bounds one catalogue write.
const writeTimeout = 5 * time.Second

// Logger defines the logging interface used by Tracker.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Tracker writes registry membership changes into the catalogue.
// It implements controller.Observer.
type Tracker struct {
	repo   Repository
	logger Logger
	now    func() time.Time
}

// NewTracker creates a Tracker writing to repo.
func NewTracker(repo Repository, logger Logger) *Tracker {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Tracker{repo: repo, logger: logger, now: time.Now}
}

// AddRenderer records the renderer as online.
func (t *Tracker) AddRenderer(uuid string, r renderer.View) {
	rend := Renderer{
		UUID:     uuid,
		LastSeen: t.now(),
	}
	if r != nil {
		rend.FriendlyName = r.FriendlyName()
		if l, ok := r.(interface{ Location() string }); ok {
			rend.Location = l.Location()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := t.repo.UpsertRenderer(ctx, rend); err != nil {
		t.logger.Warn("recording renderer failed", "uuid", uuid, "error", err)
	}
}

// RemoveRenderer records the renderer as offline.
func (t *Tracker) RemoveRenderer(uuid string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := t.repo.MarkOffline(ctx, uuid, t.now()); err != nil {
		t.logger.Warn("marking renderer offline failed", "uuid", uuid, "error", err)
	}
}
