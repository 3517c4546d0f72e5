package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/roster-scheduler/backend/internal/api"
	"github.com/roster-scheduler/backend/internal/api/middleware"
	"github.com/roster-scheduler/backend/internal/calendar"
	"github.com/roster-scheduler/backend/internal/reminder"
	"github.com/roster-scheduler/backend/internal/service"
	"github.com/roster-scheduler/backend/internal/websocket"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, WebSocket feed and reminder scheduler.",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := newLogger(cfg)

			logger.Info("starting roster scheduler", slog.String("version", version))

			db, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()
			logger.Info("database ready", slog.String("path", db.Path()))

			hub := websocket.NewHub(logger)
			broadcaster := websocket.NewBroadcaster(hub, logger)

			svc, err := newServices(cfg, db, service.Options{Publisher: broadcaster, Logger: logger})
			if err != nil {
				return err
			}

			router := api.NewRouter(api.Dependencies{
				DB:          db,
				Hub:         hub,
				Auth:        svc.auth,
				Contacts:    svc.contactSvc,
				Events:      svc.eventSvc,
				Exporter:    calendar.NewExporter(""),
				AuthLimiter: middleware.NewRateLimiter(cfg.Auth.RateLimit, cfg.Auth.RateBurst),
				Logger:      logger,
				StaticDir:   cfg.StaticDir,
				Version:     version,
			})

			server := &http.Server{
				Addr:         cfg.Listen,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				hub.Run(gctx)
				return nil
			})

			if cfg.Reminder.Enabled {
				reminders := reminder.NewScheduler(svc.events, broadcaster, cfg.Reminder.Schedule, cfg.Reminder.LeadTime, logger)
				if err := reminders.Start(); err != nil {
					return fmt.Errorf("starting reminder scheduler: %w", err)
				}
				g.Go(func() error {
					<-gctx.Done()
					reminders.Stop()
					return nil
				})
			}

			g.Go(func() error {
				logger.Info("server listening", slog.String("addr", cfg.Listen))
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting down server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("server shutdown: %w", err)
				}
				return nil
			})

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
