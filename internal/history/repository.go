package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the persistence operations for the catalogue and play log.
type Repository interface {
	UpsertRenderer(ctx context.Context, r Renderer) error
	MarkOffline(ctx context.Context, uuid string, at time.Time) error
	GetRenderer(ctx context.Context, uuid string) (*Renderer, error)
	ListRenderers(ctx context.Context) ([]Renderer, error)

	RecordPlay(ctx context.Context, p *Play) error
	ListPlays(ctx context.Context, filter PlayFilter) ([]Play, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// UpsertRenderer marks a renderer online, inserting it on first sight.
// first_seen is kept from the original row. An empty friendly name or
// location never overwrites a stored one.
func (r *SQLiteRepository) UpsertRenderer(ctx context.Context, rend Renderer) error {
	seen := formatTime(rend.LastSeen)
	const query = `INSERT INTO renderers (uuid, friendly_name, location, first_seen, last_seen, online)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (uuid) DO UPDATE SET
			friendly_name = CASE WHEN excluded.friendly_name <> '' THEN excluded.friendly_name ELSE renderers.friendly_name END,
			location = CASE WHEN excluded.location <> '' THEN excluded.location ELSE renderers.location END,
			last_seen = excluded.last_seen,
			online = 1`
	_, err := r.db.ExecContext(ctx, query, rend.UUID, rend.FriendlyName, rend.Location, seen, seen)
	if err != nil {
		return fmt.Errorf("upserting renderer %s: %w", rend.UUID, err)
	}
	return nil
}

// MarkOffline flags a renderer as gone. Unknown UUIDs are ignored.
func (r *SQLiteRepository) MarkOffline(ctx context.Context, uuid string, at time.Time) error {
	const query = `UPDATE renderers SET online = 0, last_seen = ? WHERE uuid = ?`
	if _, err := r.db.ExecContext(ctx, query, formatTime(at), uuid); err != nil {
		return fmt.Errorf("marking renderer %s offline: %w", uuid, err)
	}
	return nil
}

// GetRenderer retrieves one catalogue row.
func (r *SQLiteRepository) GetRenderer(ctx context.Context, uuid string) (*Renderer, error) {
	const query = `SELECT uuid, friendly_name, location, first_seen, last_seen, online
		FROM renderers WHERE uuid = ?`
	rend, err := scanRenderer(r.db.QueryRowContext(ctx, query, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRendererNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying renderer %s: %w", uuid, err)
	}
	return rend, nil
}

// ListRenderers returns the whole catalogue, online renderers first.
func (r *SQLiteRepository) ListRenderers(ctx context.Context) ([]Renderer, error) {
	const query = `SELECT uuid, friendly_name, location, first_seen, last_seen, online
		FROM renderers ORDER BY online DESC, friendly_name, uuid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying renderers: %w", err)
	}
	defer rows.Close()

	var out []Renderer
	for rows.Next() {
		rend, err := scanRenderer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning renderer: %w", err)
		}
		out = append(out, *rend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating renderers: %w", err)
	}
	return out, nil
}

// RecordPlay appends a play-log row and sets p.ID.
func (r *SQLiteRepository) RecordPlay(ctx context.Context, p *Play) error {
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now()
	}
	const query = `INSERT INTO plays (renderer_uuid, player, title, artist, composer, album, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.RendererUUID, p.Player, p.Title, p.Artist, p.Composer, p.Album, formatTime(p.StartedAt))
	if err != nil {
		return fmt.Errorf("inserting play for %s: %w", p.RendererUUID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading play id: %w", err)
	}
	p.ID = id
	return nil
}

// ListPlays returns plays newest first.
func (r *SQLiteRepository) ListPlays(ctx context.Context, filter PlayFilter) ([]Play, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPlayLimit
	}

	query := `SELECT id, renderer_uuid, player, title, artist, composer, album, started_at FROM plays`
	args := []any{}
	if filter.RendererUUID != "" {
		query += ` WHERE renderer_uuid = ?`
		args = append(args, filter.RendererUUID)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plays: %w", err)
	}
	defer rows.Close()

	var out []Play
	for rows.Next() {
		var p Play
		var started string
		if err := rows.Scan(&p.ID, &p.RendererUUID, &p.Player, &p.Title,
			&p.Artist, &p.Composer, &p.Album, &started); err != nil {
			return nil, fmt.Errorf("scanning play: %w", err)
		}
		p.StartedAt = parseTime(started)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plays: %w", err)
	}
	return out, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRenderer(row rowScanner) (*Renderer, error) {
	var rend Renderer
	var firstSeen, lastSeen string
	var online int
	if err := row.Scan(&rend.UUID, &rend.FriendlyName, &rend.Location,
		&firstSeen, &lastSeen, &online); err != nil {
		return nil, err
	}
	rend.FirstSeen = parseTime(firstSeen)
	rend.LastSeen = parseTime(lastSeen)
	rend.Online = online != 0
	return &rend, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
