package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/auth"
	"github.com/agenda-distribuida/scheduling-service/internal/config"
	"github.com/agenda-distribuida/scheduling-service/internal/database"
	"github.com/agenda-distribuida/scheduling-service/internal/events"
	"github.com/agenda-distribuida/scheduling-service/internal/logger"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/agenda-distribuida/scheduling-service/internal/server"
	"github.com/agenda-distribuida/scheduling-service/internal/service"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "scheduling-service",
		Usage:  "Contact-gated calendar and event scheduling API.",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default).",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit.",
				Action: migrate,
			},
			{
				Name:   "notifications",
				Usage:  "Print notifications published on the Redis channel.",
				Action: tailNotifications,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger every command shares.
func setup() (*config.Config, zerolog.Logger, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, closer, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zerolog.DefaultContextLogger = &log

	return cfg, log, closer, nil
}

// openStore returns the configured store and a function releasing it.
func openStore(cfg *config.Config, log zerolog.Logger) (repository.Store, func() error, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if applied := db.Applied(); len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("Applied migrations")
	}
	return repository.NewSQLStore(db.DB(), log), db.Close, nil
}

func serve(c *cli.Context) error {
	cfg, log, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	defer closeStore()

	var pub service.Publisher = service.NopPublisher{}
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(c.Context, 5*time.Second)
		redisClient, err := events.NewRedisClient(ctx, cfg.Redis.URL, log)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to Redis")
			return err
		}
		defer redisClient.Close()
		pub = events.NewPublisher(redisClient, cfg.Redis.Channel)
	} else {
		log.Info().Msg("REDIS_URL not set, notifications disabled")
	}

	suggester := service.NewSuggester(cfg.Scheduling.MaxSearchSteps, log)
	srv := server.New(cfg, server.Deps{
		Store:    store,
		Tokens:   auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration),
		Users:    service.NewUserService(store, log),
		Contacts: service.NewContactService(store, pub, log),
		Events:   service.NewEventService(store, suggester, pub, log),
	}, &log)

	// Channel to listen for errors from server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Server error")
			return err
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, log, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Database.Driver == config.DriverMemory {
		log.Info().Msg("Memory driver has no schema, nothing to migrate")
		return nil
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Error().Err(err).Msg("Migration failed")
		return err
	}
	defer db.Close()

	log.Info().
		Str("path", cfg.Database.Path).
		Strs("applied", db.Applied()).
		Msg("Database is up to date")
	return nil
}

func tailNotifications(c *cli.Context) error {
	cfg, log, closer, err := setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is not set")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := events.NewRedisClient(ctx, cfg.Redis.URL, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	log.Info().Str("channel", cfg.Redis.Channel).Msg("Listening for notifications")
	return redisClient.Subscribe(ctx, cfg.Redis.Channel, func(payload string) {
		fmt.Println(payload)
	})
}
