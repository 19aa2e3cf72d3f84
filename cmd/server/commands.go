package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/tasklist-api/internal/config"
	"github.com/phrazzld/tasklist-api/internal/platform/logger"
	"github.com/phrazzld/tasklist-api/internal/platform/postgres"
	"github.com/phrazzld/tasklist-api/internal/service/auth"
	"github.com/urfave/cli/v3"
)

const envFileFlag = "env-file"

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasklist-api",
		Usage: "Task list API with coordinated caching and locking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  envFileFlag,
				Usage: "dotenv file loaded before reading TASKLIST_ variables",
				Value: config.DefaultEnvFile,
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := loadConfig(c)
			if err != nil {
				return err
			}

			db, err := setupAppDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log, db)
			if err != nil {
				_ = db.Close()
				return err
			}
			return app.Run(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	sub := func(name, usage string) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(ctx context.Context, c *cli.Command) error {
				return runMigrations(ctx, c, name)
			},
		}
	}
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			sub(postgres.MigrateUp, "Apply all pending migrations"),
			sub(postgres.MigrateDown, "Roll back the latest migration"),
			sub(postgres.MigrateStatus, "Print the migration status"),
			sub(postgres.MigrateReset, "Roll back all migrations"),
		},
	}
}

func runMigrations(ctx context.Context, c *cli.Command, command string) error {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", "error", err)
		}
	}()

	return postgres.Migrate(ctx, db, command, log)
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "Print an access token for a user id (development only)",
		ArgsUsage: "USER_ID",
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := strconv.ParseInt(c.Args().First(), 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("a positive numeric USER_ID is required")
			}

			cfg, err := config.LoadFrom(c.String(envFileFlag))
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}
			token, err := jwtService.GenerateToken(ctx, userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.Root().Writer, token)
			return err
		},
	}
}

// loadConfig loads and validates configuration and installs the logger.
func loadConfig(c *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(c.String(envFileFlag))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"coordination_backend", cfg.Coordination.Backend)
	return cfg, log, nil
}
