package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
)

// Availability answers whether a participant is free for a timeslot.
type Availability interface {
	IsTimeslotAvailable(ts models.Timeslot) bool
}

// AvailabilityFunc adapts a plain function to Availability.
type AvailabilityFunc func(ts models.Timeslot) bool

func (f AvailabilityFunc) IsTimeslotAvailable(ts models.Timeslot) bool {
	return f(ts)
}

// Commitments are the events that block a user's time: accepted calendar
// events and pending invites.
type Commitments []*models.Event

// IsTimeslotAvailable reports whether no commitment clashes with ts.
func (c Commitments) IsTimeslotAvailable(ts models.Timeslot) bool {
	for _, e := range c {
		if e.ClashesWith(ts) {
			return false
		}
	}
	return true
}

// commitmentsOf resolves the user's calendar and event invites.
func commitmentsOf(ctx context.Context, store repository.Store, u *models.User) (Commitments, error) {
	ids := make([]int64, 0, len(u.Calendar)+len(u.EventInvites))
	ids = append(ids, u.Calendar...)
	ids = append(ids, u.EventInvites...)

	events, err := store.Events().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load commitments of %s: %w", u.Username, mapStoreErr(err))
	}
	return Commitments(events), nil
}

// calendarEvents resolves only the accepted calendar events.
func calendarEvents(ctx context.Context, store repository.Store, u *models.User) (Commitments, error) {
	events, err := store.Events().FindByIDs(ctx, u.Calendar)
	if err != nil {
		return nil, fmt.Errorf("load calendar of %s: %w", u.Username, mapStoreErr(err))
	}
	return Commitments(events), nil
}

func findUser(ctx context.Context, store repository.Store, username string) (*models.User, error) {
	u, err := store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}

// ParseEventID parses an event id as it arrives from a URL. Anything that is
// not a non-negative integer is reported as ErrEventNotFound.
func ParseEventID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, ErrEventNotFound
	}
	return id, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrUsernameTaken):
		return ErrUserAlreadyExists
	}
	return err
}
