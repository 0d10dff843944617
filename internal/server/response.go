package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// RespondWithError sends a JSON error response with the given status code and message
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Status: "error", Message: message})
}

// RespondWithJSON sends a JSON response with the given status code and payload
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"error","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondSuccess wraps data under key next to a success status.
func respondSuccess(w http.ResponseWriter, code int, key string, data interface{}) {
	body := map[string]interface{}{"status": "success"}
	if key != "" {
		body[key] = data
	}
	RespondWithJSON(w, code, body)
}

// statusFor maps core errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrNotInvited):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyInContacts),
		errors.Is(err, service.ErrAlreadyInvited),
		errors.Is(err, service.ErrAlreadyInCalendar),
		errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrClash):
		return http.StatusConflict
	case errors.Is(err, service.ErrCannotActOnSelf),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNoAccess):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNoTimeslotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondServiceError writes the mapped status. Unexpected errors are logged
// and hidden from the client.
func respondServiceError(w http.ResponseWriter, log *zerolog.Logger, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", requestID(r)).
			Str("path", r.URL.Path).
			Msg("Request failed")
		RespondWithError(w, code, "internal server error")
		return
	}
	RespondWithError(w, code, err.Error())
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debug().Err(err).Msg("Failed to decode request body")
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		log.Debug().Err(err).Msg("Validation failed")
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
