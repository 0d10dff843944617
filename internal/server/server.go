package server

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/auth"
	"github.com/agenda-distribuida/scheduling-service/internal/config"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var validate = newValidator()

// usernamePattern keeps usernames usable as a single URL path segment.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Deps are the collaborators the HTTP layer delegates to.
type Deps struct {
	Store    repository.Store
	Tokens   *auth.TokenIssuer
	Users    *service.UserService
	Contacts *service.ContactService
	Events   *service.EventService
}

type Server struct {
	Server *http.Server
	log    *zerolog.Logger
	store  repository.Store
	tokens *auth.TokenIssuer

	userAPI    *UserHandler
	contactAPI *ContactHandler
	eventAPI   *EventHandler
}

func New(cfg *config.Config, deps Deps, log *zerolog.Logger) *Server {
	now := time.Now

	s := &Server{
		Server: &http.Server{
			Addr:         cfg.Addr(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		log:        log,
		store:      deps.Store,
		tokens:     deps.Tokens,
		userAPI:    NewUserHandler(deps.Users, deps.Tokens, now, log),
		contactAPI: NewContactHandler(deps.Contacts, log),
		eventAPI:   NewEventHandler(deps.Events, deps.Contacts, deps.Users, now, log),
	}

	r := mux.NewRouter()
	s.setupRoutes(r)

	s.Server.Handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)

	return s
}

// Handler exposes the full handler chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", s.healthCheck).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/users", s.userAPI.CreateUser).Methods("POST")
	api.HandleFunc("/login", s.userAPI.Login).Methods("POST")

	// Everything below needs a bearer token
	private := api.NewRoute().Subrouter()
	private.Use(s.authMiddleware)

	// Account routes
	private.HandleFunc("/me", s.userAPI.GetProfile).Methods("GET")
	private.HandleFunc("/me/home", s.userAPI.Home).Methods("GET")
	private.HandleFunc("/me/display-name", s.userAPI.UpdateDisplayName).Methods("PUT")
	private.HandleFunc("/me/password", s.userAPI.UpdatePassword).Methods("PUT")

	// Contact routes
	private.HandleFunc("/contacts", s.contactAPI.ListContacts).Methods("GET")
	private.HandleFunc("/contacts/invites", s.contactAPI.SendInvite).Methods("POST")
	private.HandleFunc("/contacts/invites/{username}/accept", s.contactAPI.AcceptInvite).Methods("POST")
	private.HandleFunc("/contacts/invites/{username}", s.contactAPI.CancelInvite).Methods("DELETE")
	private.HandleFunc("/contacts/{username}", s.contactAPI.RemoveContact).Methods("DELETE")

	// Event routes
	private.HandleFunc("/events/suggestions", s.eventAPI.SuggestTimeslots).Methods("POST")
	private.HandleFunc("/events", s.eventAPI.CreateEvent).Methods("POST")
	private.HandleFunc("/events/{id}", s.eventAPI.GetEvent).Methods("GET")
	private.HandleFunc("/events/{id}/accept", s.eventAPI.AcceptInvite).Methods("POST")
	private.HandleFunc("/events/{id}/decline", s.eventAPI.DeclineInvite).Methods("POST")
	private.HandleFunc("/calendar", s.eventAPI.Calendar).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("address", s.Server.Addr).Msg("Starting server")
	return s.Server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info().Msg("Shutting down server")
	return s.Server.Shutdown(ctx)
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.log.Error().Msg("Store is not initialized")
		RespondWithError(w, http.StatusServiceUnavailable, "store not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("Store health check failed")
		RespondWithError(w, http.StatusServiceUnavailable, "store connection failed")
		return
	}

	RespondWithJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
