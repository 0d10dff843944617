package server

import (
	"context"
	"net/http"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// EventHandler handles event and calendar requests
type EventHandler struct {
	events   *service.EventService
	contacts *service.ContactService
	users    *service.UserService
	now      func() time.Time
	log      *zerolog.Logger
}

func NewEventHandler(events *service.EventService, contacts *service.ContactService, users *service.UserService, now func() time.Time, log *zerolog.Logger) *EventHandler {
	return &EventHandler{events: events, contacts: contacts, users: users, now: now, log: log}
}

// SuggestTimeslots returns up to a handful of free slots near the requested start
func (h *EventHandler) SuggestTimeslots(w http.ResponseWriter, r *http.Request) {
	var req models.SuggestionRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = models.DefaultDurationMinutes
	}

	slots, err := h.events.SuggestTimeslots(r.Context(), currentUser(r), req.Invitees, req.StartTime, req.DurationMinutes)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "timeslots", slots)
}

// CreateEvent handles event creation. Every invitee must be a contact of
// the organiser.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}
	organiser := currentUser(r)

	for _, invitee := range req.Invitees {
		if invitee == organiser {
			continue
		}
		ok, err := h.contacts.AreContacts(r.Context(), organiser, invitee)
		if err != nil {
			respondServiceError(w, h.log, r, err)
			return
		}
		if !ok {
			RespondWithError(w, http.StatusBadRequest, "invitee "+invitee+" is not a contact")
			return
		}
	}

	draft := models.NewEvent(req.Title, req.Description, req.Location, req.StartTime, req.DurationMinutes)
	event, err := h.events.CreateEvent(r.Context(), organiser, req.Invitees, draft)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	view, err := h.events.ViewOf(r.Context(), event)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "event", view)
}

// GetEvent returns an event the caller is involved in
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetEventFromID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	if err := h.events.CanViewEvent(r.Context(), currentUser(r), event); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	view, err := h.events.ViewOf(r.Context(), event)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "event", view)
}

func (h *EventHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	if err := h.events.AcceptEventInvite(r.Context(), currentUser(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

func (h *EventHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	if err := h.events.DeclineEventInvite(r.Context(), currentUser(r), mux.Vars(r)["id"]); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

// Calendar lists the caller's upcoming events, pending event invites and the
// upcoming events they organise
func (h *EventHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	username := currentUser(r)
	now := h.now()

	calendar, err := h.users.FutureCalendar(r.Context(), username, now)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	invites, err := h.users.FutureEventInvites(r.Context(), username, now)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	created, err := h.users.FutureCreatedEvents(r.Context(), username, now)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	calendarViews, err := h.viewsOf(r.Context(), calendar)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	inviteViews, err := h.viewsOf(r.Context(), invites)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	createdViews, err := h.viewsOf(r.Context(), created)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"calendar": calendarViews,
		"invites":  inviteViews,
		"created":  createdViews,
	})
}

func (h *EventHandler) viewsOf(ctx context.Context, events []*models.Event) ([]models.EventView, error) {
	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		v, err := h.events.ViewOf(ctx, e)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}
