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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/lifemate/internal/advisor"
	"github.com/dukerupert/lifemate/internal/catalog"
	"github.com/dukerupert/lifemate/internal/config"
	"github.com/dukerupert/lifemate/internal/database"
	"github.com/dukerupert/lifemate/internal/push"
	"github.com/dukerupert/lifemate/internal/server"
	"github.com/dukerupert/lifemate/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Hour
)

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the HTTP API, the reminder scheduler and scheduled backups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringP("port", "p", "", "port to listen on (overrides config)")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	loc, err := cfg.Zone()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	adv, err := newAdvisor(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(db, adv, server.Options{
		Location:       loc,
		AllowedOrigins: cfg.AllowedOrigins,
		DefaultPoint:   cfg.Location,
		NotifyInterval: cfg.Notify.Interval,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
		Push: push.Config{
			VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
			Subscriber:      cfg.Push.Subscriber,
		},
		Backup: backupConfig(cfg),
	}, logger)

	srv.Scheduler().Start(ctx)
	defer srv.Scheduler().Stop()
	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("lifemate listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		srv.RateLimiter().RunCleanup(gctx, cleanupInterval)
		return nil
	})
	g.Go(func() error {
		pruneNotifications(gctx, srv.NotificationLog(), cfg.Notify.Retention, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newAdvisor uses Gemini when a key is configured. Without one every advisory
// call fails with a localized "unavailable" message.
func newAdvisor(ctx context.Context, cfg config.Config, logger *slog.Logger) (*advisor.Advisor, error) {
	var svc advisor.TextCompletionService = advisor.Unavailable{}
	if cfg.Gemini.APIKey != "" {
		g, err := advisor.NewGeminiService(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		svc = g
	} else {
		logger.Warn("no Gemini API key configured; advisory views are disabled")
	}
	return advisor.New(svc, cfg.Gemini.CacheTTL, catalog.Default(), logger), nil
}

// pruneNotifications drops log rows older than retention until ctx ends.
func pruneNotifications(ctx context.Context, log *store.NotificationLogStore, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := log.Prune(time.Now().Add(-retention))
			if err != nil {
				logger.Error("prune notification log", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("pruned notification log", "rows", n)
			}
		}
	}
}
