package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Relation names stored in user_relations.
const (
	relContact        = "contact"
	relSentInvite     = "sent_invite"
	relReceivedInvite = "received_invite"
	relCalendar       = "calendar"
	relCreatedEvent   = "created_event"
	relEventInvite    = "event_invite"
)

type userRepository struct {
	db  dbtx
	log zerolog.Logger
}

func relationsOf(u *models.User) map[string]*models.IDSet {
	return map[string]*models.IDSet{
		relContact:        &u.Contacts,
		relSentInvite:     &u.SentContactInvites,
		relReceivedInvite: &u.ReceivedContactInvites,
		relCalendar:       &u.Calendar,
		relCreatedEvent:   &u.CreatedEvents,
		relEventInvite:    &u.EventInvites,
	}
}

// Create inserts a new user together with its relationship collections
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, display_name, hashed_password)
		VALUES (?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, user.Username, user.DisplayName, user.HashedPassword)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrUsernameTaken
		}
		r.log.Error().Err(err).Str("username", user.Username).Msg("Failed to create user")
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = id

	return r.writeRelations(ctx, user)
}

// FindByUsername retrieves a user by username
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, hashed_password
		FROM users
		WHERE username = ?
	`
	return r.findOne(ctx, query, username)
}

// FindByID retrieves a user by ID
func (r *userRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, display_name, hashed_password
		FROM users
		WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.DisplayName,
		&user.HashedPassword,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		r.log.Error().Err(err).Interface("key", arg).Msg("Failed to get user")
		return nil, err
	}

	if err := r.loadRelations(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) loadRelations(ctx context.Context, user *models.User) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT relation, other_id
		FROM user_relations
		WHERE user_id = ?
		ORDER BY relation, position
	`, user.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load user relations")
		return err
	}
	defer rows.Close()

	sets := relationsOf(user)
	for rows.Next() {
		var relation string
		var otherID int64
		if err := rows.Scan(&relation, &otherID); err != nil {
			return err
		}
		if set, ok := sets[relation]; ok {
			set.Add(otherID)
		}
	}
	return rows.Err()
}

// Save writes the user row and replaces its relationship collections
func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = ?, hashed_password = ?
		WHERE id = ?
	`, user.DisplayName, user.HashedPassword, user.ID)
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to update user")
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_relations WHERE user_id = ?`, user.ID); err != nil {
		r.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to clear user relations")
		return err
	}
	return r.writeRelations(ctx, user)
}

// SaveAll saves every user in order. Callers wanting all-or-nothing
// semantics run it inside Store.InTx.
func (r *userRepository) SaveAll(ctx context.Context, users []*models.User) error {
	for _, u := range users {
		if err := r.Save(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) writeRelations(ctx context.Context, user *models.User) error {
	query := `INSERT INTO user_relations (user_id, relation, other_id, position) VALUES (?, ?, ?, ?)`
	for relation, set := range relationsOf(user) {
		for pos, otherID := range *set {
			if _, err := r.db.ExecContext(ctx, query, user.ID, relation, otherID, pos); err != nil {
				r.log.Error().Err(err).
					Int64("user_id", user.ID).
					Str("relation", relation).
					Msg("Failed to write user relation")
				return err
			}
		}
	}
	return nil
}
