package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/metrics"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/platform/ratelimit"
	"github.com/phrazzld/taskflow-api/internal/realtime"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

// application holds the shared dependencies so they can be wired into the
// router and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	jwtService          auth.JWTService
	userService         service.UserService
	taskService         service.TaskService
	notificationService service.NotificationService

	hub      *realtime.Hub
	registry *realtime.Registry
	limiter  ratelimit.Limiter
	metrics  *metrics.Metrics
}

// newApplication wires stores, services and the realtime layer on top of an
// open database connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       db,
		hub:      realtime.NewHub(logger),
		registry: realtime.NewRegistry(),
		metrics:  metrics.NewDefault(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	userStore := postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)
	notificationStore := postgres.NewPostgresNotificationStore(db, logger)

	app.userService, err = service.NewUserService(
		userStore, auth.NewBcryptVerifier(), db, cfg.Auth.AdminInviteToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(taskStore, userStore, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.notificationService, err = service.NewNotificationService(
		notificationStore, taskStore, app.registry, app.hub, db, app.metrics, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	app.limiter, err = setupLimiter(cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// setupLimiter uses Redis when an address is configured so that limits are
// shared across instances, and process memory otherwise.
func setupLimiter(cfg config.RedisConfig, logger *slog.Logger) (ratelimit.Limiter, error) {
	if cfg.Addr == "" {
		logger.Info("rate limiter using process memory")
		return ratelimit.NewMemoryLimiter(), nil
	}
	limiter, err := ratelimit.NewRedisLimiter(cfg.Addr, cfg.Password, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rate limiter to redis: %w", err)
	}
	logger.Info("rate limiter using redis", slog.String("addr", cfg.Addr))
	return limiter, nil
}

// Run serves HTTP until ctx is cancelled or a shutdown signal arrives.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) writeTimeout() time.Duration {
	return time.Duration(app.config.Realtime.WriteTimeoutSeconds) * time.Second
}

// cleanup releases realtime connections, the limiter and the database pool.
func (app *application) cleanup() {
	if app.hub != nil {
		app.hub.CloseAll()
	}
	if app.limiter != nil {
		app.limiter.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
