package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/rs/zerolog"
)

const (
	roleAttendee = "attendee"
	roleInvitee  = "invitee"
)

type eventRepository struct {
	db  dbtx
	log zerolog.Logger
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Create inserts a new event and its members
func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, start_time, duration_minutes, organiser_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		formatTime(event.StartTime),
		event.DurationMinutes,
		event.OrganiserID,
	)
	if err != nil {
		r.log.Error().Err(err).Str("title", event.Title).Msg("Failed to create event")
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = id

	return r.writeMembers(ctx, event)
}

// FindByID retrieves an event by its ID
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `
		SELECT id, title, description, location, start_time, duration_minutes, organiser_id
		FROM events
		WHERE id = ?
	`

	var event models.Event
	var start string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&start,
		&event.DurationMinutes,
		&event.OrganiserID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		r.log.Error().Err(err).Int64("event_id", id).Msg("Failed to get event by ID")
		return nil, err
	}

	event.StartTime, err = time.Parse(time.RFC3339Nano, start)
	if err != nil {
		return nil, fmt.Errorf("event %d has malformed start time %q: %w", id, start, err)
	}

	if err := r.loadMembers(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDs retrieves events in the order given. Any missing id fails the
// whole lookup with ErrEventNotFound.
func (r *eventRepository) FindByIDs(ctx context.Context, ids []int64) ([]*models.Event, error) {
	events := make([]*models.Event, 0, len(ids))
	for _, id := range ids {
		event, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Save updates the event row and replaces its members
func (r *eventRepository) Save(ctx context.Context, event *models.Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, location = ?, start_time = ?, duration_minutes = ?
		WHERE id = ?
	`,
		event.Title,
		event.Description,
		event.Location,
		formatTime(event.StartTime),
		event.DurationMinutes,
		event.ID,
	)
	if err != nil {
		r.log.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to update event")
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_members WHERE event_id = ?`, event.ID); err != nil {
		r.log.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to clear event members")
		return err
	}
	return r.writeMembers(ctx, event)
}

func (r *eventRepository) loadMembers(ctx context.Context, event *models.Event) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, user_id
		FROM event_members
		WHERE event_id = ?
		ORDER BY role, position
	`, event.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("event_id", event.ID).Msg("Failed to load event members")
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var userID int64
		if err := rows.Scan(&role, &userID); err != nil {
			return err
		}
		switch role {
		case roleAttendee:
			event.Attendees.Add(userID)
		case roleInvitee:
			event.Invitees.Add(userID)
		}
	}
	return rows.Err()
}

func (r *eventRepository) writeMembers(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO event_members (event_id, role, user_id, position) VALUES (?, ?, ?, ?)`
	write := func(role string, ids models.IDSet) error {
		for pos, userID := range ids {
			if _, err := r.db.ExecContext(ctx, query, event.ID, role, userID, pos); err != nil {
				r.log.Error().Err(err).
					Int64("event_id", event.ID).
					Str("role", role).
					Msg("Failed to write event member")
				return err
			}
		}
		return nil
	}

	if err := write(roleAttendee, event.Attendees); err != nil {
		return err
	}
	return write(roleInvitee, event.Invitees)
}
