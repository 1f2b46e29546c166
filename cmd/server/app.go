package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dmccdv/parrot/internal/config"
	"github.com/dmccdv/parrot/internal/domain/srs"
	"github.com/dmccdv/parrot/internal/platform/postgres"
	"github.com/dmccdv/parrot/internal/service/auth"
	"github.com/dmccdv/parrot/internal/service/library"
	"github.com/dmccdv/parrot/internal/service/study"
	"github.com/dmccdv/parrot/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore      store.UserStore
	deckStore      store.DeckStore
	cardStore      store.CardStore
	progressStore  store.ProgressStore
	sessionStore   store.SessionStore
	userDeckStore  store.UserDeckStore
	reviewLogStore store.ReviewLogStore

	// Services
	jwtService     auth.JWTService
	passwordHasher *auth.BcryptVerifier
	srsService     srs.Service
	studyService   study.Service
	libraryService library.Service
}

// newApplication creates a new application instance with all dependencies
// initialized. The database connection must already be established.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptVerifier(cfg.Auth.BCryptCost)

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.progressStore = postgres.NewPostgresProgressStore(db, logger)
	app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	app.userDeckStore = postgres.NewPostgresUserDeckStore(db, logger)
	app.reviewLogStore = postgres.NewPostgresReviewLogStore(db, logger)

	// Scheduler
	app.srsService = srs.NewDefaultService()

	// Domain services
	app.studyService = study.NewService(
		db,
		app.deckStore,
		app.cardStore,
		app.progressStore,
		app.sessionStore,
		app.userDeckStore,
		app.reviewLogStore,
		app.srsService,
		logger,
	)

	app.libraryService = library.NewService(
		db,
		app.deckStore,
		app.cardStore,
		app.userDeckStore,
		app.sessionStore,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
