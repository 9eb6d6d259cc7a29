package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecomroutine/ecomroutine-api/internal/api"
	"github.com/ecomroutine/ecomroutine-api/internal/api/middleware"
	"github.com/ecomroutine/ecomroutine-api/internal/config"
	"github.com/ecomroutine/ecomroutine-api/internal/platform/postgres"
	"github.com/ecomroutine/ecomroutine-api/internal/service"
	"github.com/ecomroutine/ecomroutine-api/internal/service/auth"
	"github.com/ecomroutine/ecomroutine-api/internal/store"
)

// application holds the shared dependencies so wiring and cleanup stay in
// one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore        store.UserStore
	marketplaceStore store.MarketplaceStore
	routineStore     store.RoutineStore
	taskStore        store.TaskStore

	// Services
	jwtService         auth.JWTService
	userService        service.UserService
	marketplaceService service.MarketplaceService
	routineService     service.RoutineService
	taskService        service.TaskService
	statsService       service.StatsService
}

// newApplication wires stores and services on top of the established
// database connection.
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
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.marketplaceStore = postgres.NewPostgresMarketplaceStore(db, logger)
	app.routineStore = postgres.NewPostgresRoutineStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	app.userService, err = service.NewUserService(
		app.userStore, app.jwtService, hasher, hasher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.marketplaceService, err = service.NewMarketplaceService(app.marketplaceStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create marketplace service: %w", err)
	}

	app.routineService, err = service.NewRoutineService(
		db, app.routineStore, app.taskStore, app.marketplaceStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create routine service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		app.taskStore, app.marketplaceStore, app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.statsService, err = service.NewStatsService(app.taskStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupHandlers builds the API handlers and auth middleware from the
// application services.
func (app *application) setupHandlers() (
	*api.AuthHandler,
	*api.MarketplaceHandler,
	*api.RoutineHandler,
	*api.TaskHandler,
	*api.UserHandler,
	*middleware.AuthMiddleware,
) {
	return api.NewAuthHandler(app.userService, app.logger),
		api.NewMarketplaceHandler(app.marketplaceService, app.logger),
		api.NewRoutineHandler(app.routineService, app.logger),
		api.NewTaskHandler(app.taskService, app.statsService, app.logger),
		api.NewUserHandler(app.userService, app.logger),
		middleware.NewAuthMiddleware(app.jwtService, app.userStore, app.logger)
}

// cleanup releases application resources on shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection",
				slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
