package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/platform/postgres"
	"github.com/taskhive/taskhive/internal/realtime"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/store"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	taskStore         store.TaskStore
	notificationStore store.NotificationStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier

	// Real-time components
	rooms     *realtime.Router
	presence  *realtime.Registry
	hub       *realtime.Hub
	backplane *realtime.Backplane
}

// newApplication wires up stores, services and the real-time stack from the
// loaded configuration. The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.rooms = realtime.NewRouter(logger)
	app.presence = realtime.NewRegistry()

	if cfg.Redis.URL != "" {
		backplane, err := realtime.NewBackplane(ctx, app.rooms, cfg.Redis.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up backplane: %w", err)
		}
		app.backplane = backplane
	}

	notifier := realtime.NewNotifier(app.notificationStore, app.rooms, logger)
	dispatcher := realtime.NewDispatcher(
		app.rooms,
		app.presence,
		app.taskStore,
		app.notificationStore,
		notifier,
		logger,
	)
	verifier := realtime.NewVerifier(app.jwtService, app.userStore, logger)
	app.hub = realtime.NewHub(verifier, dispatcher, app.rooms, app.presence, logger)

	return app, nil
}

// cleanup releases resources held by the application in reverse dependency
// order: connections first, then the backplane, then the database.
func (app *application) cleanup() {
	if app.hub != nil {
		app.hub.Close()
	}
	if app.backplane != nil {
		if err := app.backplane.Close(); err != nil {
			app.logger.Error("failed to close backplane", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}
}
