package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/events"
	"github.com/phrazzld/tasklist-api/internal/platform/postgres"
	"github.com/phrazzld/tasklist-api/internal/service"
	"github.com/phrazzld/tasklist-api/internal/service/auth"
)

// application holds the shared dependencies of the server and owns their
// shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	coordination *coordination
	eventBus     *events.InMemoryEventBus

	jwtService   auth.JWTService
	taskService  service.TaskService
	auditService service.AuditService
}

// newApplication wires stores, coordination backends, the event bus and the
// services on top of an open database. On error the coordination backend is
// closed again; db stays with the caller.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (_ *application, err error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.coordination, err = newCoordination(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize coordination backend: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if closeErr := app.coordination.close(); closeErr != nil {
			logger.Error("error closing coordination backend", "error", closeErr)
		}
	}()

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	taskStore := postgres.NewPostgresTaskStore(db, logger)
	auditStore := postgres.NewPostgresAuditStore(db, logger)

	app.auditService, err = service.NewAuditService(auditStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit service: %w", err)
	}

	app.eventBus = events.NewInMemoryEventBus(logger)
	listener, err := service.NewTaskAuditListener(app.auditService, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit listener: %w", err)
	}
	app.eventBus.Listen(events.TypeTaskAudit, listener)

	app.taskService, err = service.NewTaskService(
		service.NewTaskRepositoryAdapter(taskStore, db),
		app.coordination.cache,
		app.coordination.locker,
		app.eventBus,
		service.TaskServiceOptions{
			Keys:     service.KeyScheme{Namespace: cfg.Coordination.KeyNamespace},
			CacheTTL: cfg.Coordination.CacheTTL,
			LockTTL:  cfg.Coordination.LockTTL,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// Run serves HTTP until ctx is canceled, then shuts down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the backends and the database pool.
func (app *application) cleanup() {
	if app.coordination != nil {
		if err := app.coordination.close(); err != nil {
			app.logger.Error("error closing coordination backend", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
