package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/roster-scheduler/backend/internal/seed"
	"github.com/roster-scheduler/backend/internal/service"
	"github.com/roster-scheduler/backend/internal/storage"
)

func migrateCommand() *cli.Command {
	withMigrator := func(c *cli.Context, fn func(*storage.Migrator, *slog.Logger) error) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		db, err := storage.NewDB(cfg.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		mg, err := storage.NewMigrator(db, logger)
		if err != nil {
			return err
		}
		return fn(mg, logger)
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema.",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "Apply all pending migrations.",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(mg *storage.Migrator, logger *slog.Logger) error {
						if err := mg.Up(); err != nil {
							return err
						}
						logger.Info("migrations applied")
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back migrations.",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "Number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(mg *storage.Migrator, logger *slog.Logger) error {
						if err := mg.Down(c.Int("steps")); err != nil {
							return err
						}
						logger.Info("migrations rolled back", slog.Int("steps", c.Int("steps")))
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "Print the current schema version.",
				Action: func(c *cli.Context) error {
					return withMigrator(c, func(mg *storage.Migrator, _ *slog.Logger) error {
						v, dirty, err := mg.Version()
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "version %d (dirty: %t)\n", v, dirty)
						return nil
					})
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create a demo account with contacts and events.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := newLogger(cfg)

			db, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := newServices(cfg, db, service.Options{Logger: logger})
			if err != nil {
				return err
			}

			res, err := seed.NewSeeder(svc.auth, svc.contactSvc, svc.eventSvc, logger).Run(c.Context)
			if err != nil {
				return err
			}
			if !res.Skipped {
				fmt.Fprintf(c.App.Writer, "Seeded %d contacts and %d events. Log in as %s / %s\n",
					res.Contacts, res.Events, seed.DemoEmail, seed.DemoPassword)
			}
			return nil
		},
	}
}

// healthCheckCommand probes a running server, for Docker HEALTHCHECK.
func healthCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "health-check",
		Usage: "Check that a running server is healthy and exit.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return runHealthCheck(cfg.Listen)
		},
	}
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + host + "/api/health")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}
