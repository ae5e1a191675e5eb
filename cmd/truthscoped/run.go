package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/analysis"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/config"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/logging"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/push"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/router"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/session"
	"github.com/sujayx07/TurthScope-GenAI-GCP-integrate/internal/tabstate"
)

// runCmd starts the coordinator daemon explicitly; the bare root command
// does the same.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the coordinator daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd)
	},
}

func runDaemon(cmd *cobra.Command) error {
	dir, err := resolveStateDir()
	if err != nil {
		return fmt.Errorf("failed to resolve state directory: %w", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logging.Configure(logging.Options{
		Debug:      cfg.Logging.Debug,
		Dir:        cfg.Logging.Dir,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer logging.CloseAll()

	var journal *tabstate.Journal
	if cfg.Journal.Path != "" {
		journal, err = tabstate.OpenJournal(cfg.Journal.Path)
		if err != nil {
			// The in-memory store works without the mirror.
			logger.Warn("artifact journal unavailable", zap.String("path", cfg.Journal.Path), zap.Error(err))
			journal = nil
		} else {
			defer journal.Close()
		}
	}

	bus := push.NewBus()
	provider := session.NewGoogleProvider(dir)
	sess := session.NewManager(provider, bus)
	store := tabstate.NewStore(sess.IsSignedIn, journal)
	client := analysis.NewClient(cfg.Endpoints)
	orch := analysis.NewOrchestrator(client, sess, store, bus, cfg.Analysis.MaxTextChars)
	rtr := router.New(sess, store, orch, bus, cfg.Analysis.MinTextLength)
	bridge := newBridge(rtr, bus)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Restore a cached session before accepting traffic so the first
	// auth-state read answers from the real state.
	sess.CheckInitialState(ctx)

	watcher, err := config.NewWatcher(dir, func(updated *config.Config) {
		client.SetEndpoints(updated.Endpoints)
		if err := logging.Configure(logging.Options{
			Debug:      updated.Logging.Debug,
			Dir:        updated.Logging.Dir,
			Level:      updated.Logging.Level,
			Categories: updated.Logging.Categories,
		}); err != nil {
			logger.Warn("logging reconfiguration failed", zap.Error(err))
		}
		logger.Info("configuration reloaded")
	})
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
	} else {
		if err := watcher.Start(); err != nil {
			logger.Warn("config watcher failed to start", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:    cfg.Bridge.Listen,
		Handler: bridge,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("bridge listening", zap.String("addr", cfg.Bridge.Listen))
		logging.Boot("bridge listening on %s", cfg.Bridge.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("bridge server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
