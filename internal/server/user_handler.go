package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/auth"
	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/rs/zerolog"
)

// UserHandler handles account HTTP requests
type UserHandler struct {
	users  *service.UserService
	tokens *auth.TokenIssuer
	now    func() time.Time
	log    *zerolog.Logger
}

func NewUserHandler(users *service.UserService, tokens *auth.TokenIssuer, now func() time.Time, log *zerolog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, now: now, log: log}
}

// CreateUser handles user sign-up
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	profile, err := h.users.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	respondSuccess(w, http.StatusCreated, "user", profile)
}

// Login exchanges credentials for a bearer token
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	err := h.users.VerifyCredentials(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrPasswordMismatch) {
		h.log.Info().Str("username", req.Username).Msg("Login rejected")
		RespondWithError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	token, err := h.tokens.Issue(req.Username)
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		Username:  req.Username,
		ExpiresIn: int64(h.tokens.Expiry().Seconds()),
	})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.users.GetProfile(r.Context(), currentUser(r))
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "user", profile)
}

func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	summary, err := h.users.HomeSummary(r.Context(), currentUser(r), h.now())
	if err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "home", summary)
}

func (h *UserHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateDisplayNameRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	if err := h.users.UpdateDisplayName(r.Context(), currentUser(r), req.DisplayName); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePasswordRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	if err := h.users.UpdatePassword(r.Context(), currentUser(r), req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, h.log, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", nil)
}
