package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/rs/zerolog"
)

// UserRepository defines the interface for user data access.
// Users are loaded with all of their relationship collections.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	// Create inserts the user and sets its ID.
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	SaveAll(ctx context.Context, users []*models.User) error
}

// EventRepository defines the interface for event data access.
type EventRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Event, error)
	// FindByIDs returns the events in the order of ids.
	FindByIDs(ctx context.Context, ids []int64) ([]*models.Event, error)
	// Create inserts the event and sets its ID.
	Create(ctx context.Context, event *models.Event) error
	Save(ctx context.Context, event *models.Event) error
}

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Users() UserRepository
	Events() EventRepository
	// InTx runs fn against a store whose writes commit together when fn
	// returns nil and are discarded otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore is the SQLite backed Store.
type SQLStore struct {
	db     *sql.DB
	conn   dbtx
	inTx   bool
	log    zerolog.Logger
	users  *userRepository
	events *eventRepository
}

// NewSQLStore creates a store over an open, migrated database.
func NewSQLStore(db *sql.DB, log zerolog.Logger) *SQLStore {
	return newSQLStore(db, db, false, log)
}

func newSQLStore(db *sql.DB, conn dbtx, inTx bool, log zerolog.Logger) *SQLStore {
	s := &SQLStore{db: db, conn: conn, inTx: inTx, log: log}
	s.users = &userRepository{db: conn, log: log}
	s.events = &eventRepository{db: conn, log: log}
	return s
}

func (s *SQLStore) Users() UserRepository   { return s.users }
func (s *SQLStore) Events() EventRepository { return s.events }

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to begin transaction")
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(newSQLStore(s.db, tx, true, s.log)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Msg("Failed to roll back transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		s.log.Error().Err(err).Msg("Failed to commit transaction")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
