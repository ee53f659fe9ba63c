// Package repository implements all database queries for events and RSVPs.
// It uses sqlx directly (no ORM) for transparency.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/practicehub/api/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyRSVPd is returned when the same email RSVPs twice for one event.
var ErrAlreadyRSVPd = errors.New("already RSVP'd")

const eventColumns = `id, title, description, playlist, format, location,
	date, time, video_recorded, proficiency, artist_type, creator_email,
	manage_token, created_at`

const listEventsQuery = `SELECT e.id, e.title, e.description, e.playlist,
	e.format, e.location, e.date, e.time, e.video_recorded, e.proficiency,
	e.artist_type, e.creator_email, e.manage_token, e.created_at,
	(SELECT COUNT(*) FROM rsvps rv WHERE rv.event_id = e.id) AS rsvp_count
	FROM events e`

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns the generated id.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (int64, error) {
	e.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, description, playlist, format, location,
			date, time, video_recorded, proficiency, artist_type,
			creator_email, manage_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Playlist, e.Format, e.Location,
		e.Date, e.Time, boolToInt(e.VideoRecorded), e.Proficiency,
		e.ArtistType, e.CreatorEmail, e.ManageToken, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event insert id: %w", err)
	}
	e.ID = id
	return id, nil
}

// List returns events matching the filter, each with its live RSVP count,
// ordered by date then time ascending. Both orderings are lexical string
// comparisons; date and time are stored as ISO-sortable strings.
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.Event, error) {
	query := listEventsQuery

	var conds []string
	var args []any
	if f.Query != "" {
		conds = append(conds,
			"(lower(e.title) LIKE ? OR lower(e.description) LIKE ? OR lower(e.playlist) LIKE ?)")
		p := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, p, p, p)
	}
	if f.Location != "" {
		conds = append(conds, "lower(e.location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Proficiency != "" {
		conds = append(conds, "e.proficiency = ?")
		args = append(args, f.Proficiency)
	}
	if f.ArtistType != "" {
		conds = append(conds, "e.artist_type = ?")
		args = append(args, f.ArtistType)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.date ASC, e.time ASC"

	var events []model.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*model.Event, error) {
	var e model.Event
	err := r.db.GetContext(ctx, &e,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &e, nil
}

// RSVPRepository handles persistence for RSVPs.
type RSVPRepository struct {
	db *sqlx.DB
}

// NewRSVPRepository constructs an RSVPRepository.
func NewRSVPRepository(db *sqlx.DB) *RSVPRepository {
	return &RSVPRepository{db: db}
}

// Create inserts a new RSVP. The pair (event_id, email) is unique,
// case-sensitively: a pre-insert existence check catches the common
// duplicate path, and the store-level unique index closes the remaining
// check-then-insert race, with the constraint violation mapped to the same
// ErrAlreadyRSVPd.
func (r *RSVPRepository) Create(ctx context.Context, rsvp *model.RSVP) error {
	var exists int
	err := r.db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM rsvps WHERE event_id = ? AND email = ?`,
		rsvp.EventID, rsvp.Email)
	if err != nil {
		return fmt.Errorf("check existing rsvp: %w", err)
	}
	if exists > 0 {
		return ErrAlreadyRSVPd
	}

	rsvp.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rsvps (event_id, email, user_identifier, created_at)
		 VALUES (?, ?, ?, ?)`,
		rsvp.EventID, rsvp.Email, rsvp.UserIdentifier, rsvp.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyRSVPd
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}
	if rsvp.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("rsvp insert id: %w", err)
	}
	return nil
}

// CountForEvent returns the current number of RSVPs for an event.
func (r *RSVPRepository) CountForEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM rsvps WHERE event_id = ?`, eventID)
	if err != nil {
		return 0, fmt.Errorf("count rsvps: %w", err)
	}
	return count, nil
}

// ListForEvent returns the attendee list for an event, oldest first.
func (r *RSVPRepository) ListForEvent(ctx context.Context, eventID int64) ([]model.RSVPEntry, error) {
	var entries []model.RSVPEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT email, created_at FROM rsvps
		 WHERE event_id = ? ORDER BY created_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	return entries, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
