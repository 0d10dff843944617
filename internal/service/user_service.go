package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts and the per-user calendar views.
type UserService struct {
	store repository.Store
	log   zerolog.Logger
	cost  int
}

func NewUserService(store repository.Store, log zerolog.Logger) *UserService {
	return &UserService{
		store: store,
		log:   log.With().Str("component", "user_service").Logger(),
		cost:  bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

// CreateUser registers a new account. The display name starts as the username.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (models.Profile, error) {
	hashed, err := s.hash(password)
	if errors.Is(err, ErrPasswordTooLong) {
		return models.Profile{}, err
	}
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("Failed to hash password")
		return models.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.NewUser(username, string(hashed))
	if err := s.store.Users().Create(ctx, user); err != nil {
		return models.Profile{}, mapStoreErr(err)
	}

	s.log.Info().Str("username", username).Int64("user_id", user.ID).Msg("User created")
	return models.ProfileOf(user), nil
}

// VerifyCredentials checks a username and password pair.
func (s *UserService) VerifyCredentials(ctx context.Context, username, password string) error {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return err
	}
	return checkPassword(user, password)
}

// hash reports bcrypt's input limit as ErrPasswordTooLong.
func (s *UserService) hash(password string) ([]byte, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	return hashed, err
}

func checkPassword(user *models.User, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// GetProfile returns the credential-free projection of a user.
func (s *UserService) GetProfile(ctx context.Context, username string) (models.Profile, error) {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return models.Profile{}, err
	}
	return models.ProfileOf(user), nil
}

func (s *UserService) UpdateDisplayName(ctx context.Context, username, displayName string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := findUser(ctx, tx, username)
		if err != nil {
			return err
		}
		user.DisplayName = displayName
		return tx.Users().Save(ctx, user)
	})
}

// UpdatePassword replaces the password once the current one verifies.
func (s *UserService) UpdatePassword(ctx context.Context, username, current, newPassword string) error {
	return s.store.InTx(ctx, func(tx repository.Store) error {
		user, err := findUser(ctx, tx, username)
		if err != nil {
			return err
		}
		if err := checkPassword(user, current); err != nil {
			return err
		}
		hashed, err := s.hash(newPassword)
		if errors.Is(err, ErrPasswordTooLong) {
			return err
		}
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.HashedPassword = string(hashed)
		if err := tx.Users().Save(ctx, user); err != nil {
			return err
		}
		s.log.Info().Str("username", username).Msg("Password updated")
		return nil
	})
}

// FutureCalendar returns calendar events starting strictly after now.
func (s *UserService) FutureCalendar(ctx context.Context, username string, now time.Time) ([]*models.Event, error) {
	return s.futureOf(ctx, username, now, func(u *models.User) models.IDSet { return u.Calendar })
}

// FutureEventInvites returns pending invites for events starting after now.
func (s *UserService) FutureEventInvites(ctx context.Context, username string, now time.Time) ([]*models.Event, error) {
	return s.futureOf(ctx, username, now, func(u *models.User) models.IDSet { return u.EventInvites })
}

// FutureCreatedEvents returns events the user organises that start after now.
func (s *UserService) FutureCreatedEvents(ctx context.Context, username string, now time.Time) ([]*models.Event, error) {
	return s.futureOf(ctx, username, now, func(u *models.User) models.IDSet { return u.CreatedEvents })
}

func (s *UserService) futureOf(ctx context.Context, username string, now time.Time, pick func(*models.User) models.IDSet) ([]*models.Event, error) {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return nil, err
	}
	events, err := s.store.Events().FindByIDs(ctx, pick(user))
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return filterAfter(events, now), nil
}

func filterAfter(events []*models.Event, now time.Time) []*models.Event {
	out := make([]*models.Event, 0, len(events))
	for _, e := range events {
		if e.StartTime.After(now) {
			out = append(out, e)
		}
	}
	return out
}

// HomeSummary is what a user sees first after logging in.
type HomeSummary struct {
	DisplayName            string `json:"display_name"`
	ReceivedContactInvites int    `json:"received_contact_invites"`
	FutureEventInvites     int    `json:"future_event_invites"`
}

func (s *UserService) HomeSummary(ctx context.Context, username string, now time.Time) (HomeSummary, error) {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return HomeSummary{}, err
	}
	invites, err := s.store.Events().FindByIDs(ctx, user.EventInvites)
	if err != nil {
		return HomeSummary{}, mapStoreErr(err)
	}
	return HomeSummary{
		DisplayName:            user.DisplayName,
		ReceivedContactInvites: len(user.ReceivedContactInvites),
		FutureEventInvites:     len(filterAfter(invites, now)),
	}, nil
}
