package server

import (
	"net/http"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ContactHandler handles contact list and contact invite requests
type ContactHandler struct {
	contacts *service.ContactService
	log      *zerolog.Logger
}

func NewContactHandler(contacts *service.ContactService, log *zerolog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, log: log}
}

// ListContacts returns the caller's contacts and pending invites
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	username := currentUser(r)

	contacts, err := h.contacts.GetContacts(r.Context(), username)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	invites, err := h.contacts.ListInvites(r.Context(), username)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"contacts": contacts,
		"invites":  invites,
	})
}

func (h *ContactHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	var req models.ContactInviteRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	if err := h.contacts.SendInvite(r.Context(), currentUser(r), req.Username); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "", nil)
}

func (h *ContactHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	inviter := mux.Vars(r)["username"]
	if err := h.contacts.AcceptInvite(r.Context(), currentUser(r), inviter); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

func (h *ContactHandler) CancelInvite(w http.ResponseWriter, r *http.Request) {
	invitee := mux.Vars(r)["username"]
	if err := h.contacts.CancelInvite(r.Context(), currentUser(r), invitee); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

func (h *ContactHandler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	contact := mux.Vars(r)["username"]
	if err := h.contacts.RemoveContact(r.Context(), currentUser(r), contact); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}
