package service

import (
	"context"
	"fmt"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/rs/zerolog"
)

// EventService creates events and moves invitees through the invite lifecycle.
type EventService struct {
	store     repository.Store
	suggester *Suggester
	pub       Publisher
	log       zerolog.Logger
}

func NewEventService(store repository.Store, suggester *Suggester, pub Publisher, log zerolog.Logger) *EventService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &EventService{
		store:     store,
		suggester: suggester,
		pub:       pub,
		log:       log.With().Str("component", "event_service").Logger(),
	}
}

// participant is a resolved user with the events blocking their time.
type participant struct {
	user        *models.User
	commitments Commitments
}

func (s *EventService) resolveParticipants(ctx context.Context, tx repository.Store, usernames []string) ([]participant, error) {
	out := make([]participant, 0, len(usernames))
	for _, name := range usernames {
		u, err := findUser(ctx, tx, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, name)
		}
		c, err := commitmentsOf(ctx, tx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, participant{user: u, commitments: c})
	}
	return out, nil
}

// normaliseInvitees drops duplicates and rejects the organiser inviting themself.
func normaliseInvitees(organiser string, invitees []string) ([]string, error) {
	seen := make(map[string]bool, len(invitees))
	out := make([]string, 0, len(invitees))
	for _, name := range invitees {
		if name == organiser {
			return nil, ErrCannotActOnSelf
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

func availabilities(ps []participant) []Availability {
	out := make([]Availability, len(ps))
	for i, p := range ps {
		out[i] = p.commitments
	}
	return out
}

// SuggestTimeslots proposes start times near start that the organiser and
// every invitee are free for.
func (s *EventService) SuggestTimeslots(ctx context.Context, organiser string, invitees []string, start time.Time, durationMinutes int) ([]models.Timeslot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	invitees, err := normaliseInvitees(organiser, invitees)
	if err != nil {
		return nil, err
	}

	org, err := s.resolveParticipants(ctx, s.store, []string{organiser})
	if err != nil {
		return nil, err
	}
	guests, err := s.resolveParticipants(ctx, s.store, invitees)
	if err != nil {
		return nil, err
	}

	return s.suggester.FindTimeslots(org[0].commitments, start, durationMinutes, availabilities(guests))
}

// CreateEvent stores draft with organiser as its owner and invites every
// invitee. Nothing changes if the slot clashes for any participant.
func (s *EventService) CreateEvent(ctx context.Context, organiser string, invitees []string, draft *models.Event) (*models.Event, error) {
	if draft.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	invitees, err := normaliseInvitees(organiser, invitees)
	if err != nil {
		return nil, err
	}

	event := draft.Clone()
	event.Attendees = nil
	event.Invitees = nil

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		org, err := s.resolveParticipants(ctx, tx, []string{organiser})
		if err != nil {
			return err
		}
		guests, err := s.resolveParticipants(ctx, tx, invitees)
		if err != nil {
			return err
		}

		slot := event.Timeslot()
		for _, p := range append(org, guests...) {
			if !p.commitments.IsTimeslotAvailable(slot) {
				s.log.Debug().
					Str("username", p.user.Username).
					Str("timeslot", slot.String()).
					Msg("Event clashes with participant commitments")
				return ErrClash
			}
		}

		owner := org[0].user
		event.OrganiserID = owner.ID
		for _, g := range guests {
			event.Invitees.Add(g.user.ID)
		}
		if err := tx.Events().Create(ctx, event); err != nil {
			return mapStoreErr(err)
		}

		owner.Calendar.Add(event.ID)
		owner.CreatedEvents.Add(event.ID)
		touched := []*models.User{owner}
		for _, g := range guests {
			g.user.EventInvites.Add(event.ID)
			touched = append(touched, g.user)
		}
		return tx.Users().SaveAll(ctx, touched)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("event_id", event.ID).
		Str("organiser", organiser).
		Int("invitees", len(invitees)).
		Msg("Event created")
	notify(ctx, s.pub, s.log, NotifyEventCreated, map[string]interface{}{
		"event_id":   event.ID,
		"organiser":  organiser,
		"invitees":   invitees,
		"start_time": event.StartTime,
	})
	return event, nil
}

// respond loads the event and user for an invite response. It clears a
// stale invite when the event is already in the calendar.
func (s *EventService) respond(ctx context.Context, username, rawID string, apply func(tx repository.Store, user *models.User, event *models.Event) error) (int64, error) {
	id, err := ParseEventID(rawID)
	if err != nil {
		return 0, err
	}

	var opErr error
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		event, err := tx.Events().FindByID(ctx, id)
		if err != nil {
			return mapStoreErr(err)
		}
		user, err := findUser(ctx, tx, username)
		if err != nil {
			return err
		}

		if user.Calendar.Contains(event.ID) {
			opErr = ErrAlreadyInCalendar
			if !user.EventInvites.Remove(event.ID) {
				return nil
			}
			s.log.Info().
				Str("username", username).
				Int64("event_id", event.ID).
				Msg("Removed stale invite for event already in calendar")
			if event.Invitees.Remove(user.ID) {
				if err := tx.Events().Save(ctx, event); err != nil {
					return err
				}
			}
			return tx.Users().Save(ctx, user)
		}
		if !user.EventInvites.Contains(event.ID) {
			return ErrNotInvited
		}
		return apply(tx, user, event)
	})
	if err != nil {
		return id, err
	}
	return id, opErr
}

// AcceptEventInvite moves the event from the user's invites to their
// calendar, and the user from invitee to attendee.
func (s *EventService) AcceptEventInvite(ctx context.Context, username, eventID string) error {
	id, err := s.respond(ctx, username, eventID, func(tx repository.Store, user *models.User, event *models.Event) error {
		calendar, err := calendarEvents(ctx, tx, user)
		if err != nil {
			return err
		}
		for _, e := range calendar {
			if e.DoesEventClash(event.StartTime, event.DurationMinutes) {
				return ErrClash
			}
		}

		user.EventInvites.Remove(event.ID)
		user.Calendar.Add(event.ID)
		event.Invitees.Remove(user.ID)
		event.Attendees.Add(user.ID)

		if err := tx.Users().Save(ctx, user); err != nil {
			return err
		}
		return tx.Events().Save(ctx, event)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("username", username).Int64("event_id", id).Msg("Event invite accepted")
	notify(ctx, s.pub, s.log, NotifyEventInviteAccepted, map[string]interface{}{
		"event_id": id,
		"username": username,
	})
	return nil
}

// DeclineEventInvite drops the invite from both the user and the event.
func (s *EventService) DeclineEventInvite(ctx context.Context, username, eventID string) error {
	id, err := s.respond(ctx, username, eventID, func(tx repository.Store, user *models.User, event *models.Event) error {
		user.EventInvites.Remove(event.ID)
		event.Invitees.Remove(user.ID)

		if err := tx.Users().Save(ctx, user); err != nil {
			return err
		}
		return tx.Events().Save(ctx, event)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("username", username).Int64("event_id", id).Msg("Event invite declined")
	notify(ctx, s.pub, s.log, NotifyEventInviteDeclined, map[string]interface{}{
		"event_id": id,
		"username": username,
	})
	return nil
}

// GetEventFromID resolves an event id as received from a client.
func (s *EventService) GetEventFromID(ctx context.Context, rawID string) (*models.Event, error) {
	id, err := ParseEventID(rawID)
	if err != nil {
		return nil, err
	}
	event, err := s.store.Events().FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return event, nil
}

// CanViewEvent allows the organiser, attendees and invitees only.
func (s *EventService) CanViewEvent(ctx context.Context, username string, event *models.Event) error {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return err
	}
	if !event.IsInvolved(user.ID) {
		return ErrNoAccess
	}
	return nil
}

// ViewOf resolves the event's participants for display.
func (s *EventService) ViewOf(ctx context.Context, event *models.Event) (models.EventView, error) {
	organiser, err := s.store.Users().FindByID(ctx, event.OrganiserID)
	if err != nil {
		return models.EventView{}, mapStoreErr(err)
	}
	attendees, err := resolveSummaries(ctx, s.store, event.Attendees)
	if err != nil {
		return models.EventView{}, err
	}
	invitees, err := resolveSummaries(ctx, s.store, event.Invitees)
	if err != nil {
		return models.EventView{}, err
	}
	return models.EventView{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime(),
		DurationMinutes: event.DurationMinutes,
		Organiser:       models.SummaryOf(organiser),
		Attendees:       attendees,
		Invitees:        invitees,
	}, nil
}
