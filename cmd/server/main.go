// Package main is the entry point for the roster scheduler server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/roster-scheduler/backend/internal/auth"
	"github.com/roster-scheduler/backend/internal/config"
	"github.com/roster-scheduler/backend/internal/logging"
	"github.com/roster-scheduler/backend/internal/service"
	"github.com/roster-scheduler/backend/internal/storage"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	app := &cli.App{
		Name:    "roster-scheduler",
		Usage:   "Schedule events for your contacts without double booking.",
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			seedCommand(),
			healthCheckCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"ROSTER_CONFIG"}, Usage: "Path to a YAML config file"},
		&cli.StringFlag{Name: "listen", EnvVars: []string{"ROSTER_LISTEN"}, Usage: "HTTP listen address"},
		&cli.StringFlag{Name: "data-dir", EnvVars: []string{"ROSTER_DATA_DIR"}, Usage: "Directory for the SQLite database"},
		&cli.StringFlag{Name: "static-dir", EnvVars: []string{"ROSTER_STATIC_DIR"}, Usage: "Directory for static frontend files"},
		&cli.StringFlag{Name: "log-level", EnvVars: []string{"LOG_LEVEL"}, Usage: "Log level: debug, info, warn, error"},
		&cli.StringFlag{Name: "log-format", EnvVars: []string{"LOG_FORMAT"}, Usage: "Log format: text or json"},
		&cli.StringFlag{Name: "jwt-secret", EnvVars: []string{"JWT_SECRET"}, Usage: "Secret used to sign access tokens"},
		&cli.DurationFlag{Name: "token-ttl", EnvVars: []string{"JWT_EXPIRES_IN"}, Usage: "Lifetime of access tokens"},
		&cli.DurationFlag{Name: "reminder-lead", EnvVars: []string{"ROSTER_REMINDER_LEAD"}, Usage: "How long before an event its reminder is sent"},
		&cli.BoolFlag{Name: "no-reminders", EnvVars: []string{"ROSTER_NO_REMINDERS"}, Usage: "Disable upcoming event reminders"},
	}
}

// loadConfig reads the YAML file and applies flags and environment variables
// on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("static-dir") {
		cfg.StaticDir = c.String("static-dir")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("jwt-secret") {
		cfg.Auth.JWTSecret = c.String("jwt-secret")
	}
	if c.IsSet("token-ttl") {
		cfg.Auth.TokenTTL = c.Duration("token-ttl")
	}
	if c.IsSet("reminder-lead") {
		cfg.Reminder.LeadTime = c.Duration("reminder-lead")
	}
	if c.Bool("no-reminders") {
		cfg.Reminder.Enabled = false
	}
	cfg.Normalize()

	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return logger
}

// openDB opens the database and applies pending migrations.
func openDB(cfg *config.Config, logger *slog.Logger) (*storage.DB, error) {
	db, err := storage.NewDB(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := storage.RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// services bundles the repositories and services shared by serve and seed.
type services struct {
	owners   *storage.OwnerRepository
	contacts *storage.ContactRepository
	events   *storage.EventRepository

	auth       *service.AuthService
	contactSvc *service.ContactService
	eventSvc   *service.EventService
}

func newServices(cfg *config.Config, db *storage.DB, opts service.Options) (*services, error) {
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	s := &services{
		owners:   storage.NewOwnerRepository(db),
		contacts: storage.NewContactRepository(db),
		events:   storage.NewEventRepository(db),
	}
	authz := service.NewAuthorizer(s.contacts, s.events)

	s.auth = service.NewAuthService(s.owners, tokens, auth.NewHasher(cfg.Auth.BcryptCost), opts)
	s.contactSvc = service.NewContactService(s.contacts, s.events, authz, opts)
	s.eventSvc = service.NewEventService(s.events, authz, opts)
	return s, nil
}
