package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avoronov/keepsync/internal/config"
	"github.com/avoronov/keepsync/internal/logger"
	handler "github.com/avoronov/keepsync/internal/server/handler/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single sync invocation and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		return a.pipeline.Run(ctx)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interval scheduler and the HTTP trigger endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = a.close() }()

		// One slot shared by the scheduler and the trigger endpoint:
		// at most one pipeline invocation runs at any time.
		guard := make(chan struct{}, 1)

		triggerHandler := handler.NewTriggerHandler(a.pipeline, guard)
		server := &http.Server{
			Addr:    cfg.Addr,
			Handler: handler.NewRouter(triggerHandler, log),
		}

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			log.Info("starting HTTP server", zap.String("addr", cfg.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		g.Go(func() error {
			runScheduler(ctx, cfg.Interval, a, guard, log)
			return nil
		})

		return g.Wait()
	},
}

// runScheduler fires one pipeline invocation per tick. A tick arriving
// while an invocation is still in flight is skipped, not queued. Failed
// invocations are logged and left for the next tick.
func runScheduler(ctx context.Context, interval time.Duration, a *app, guard chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("scheduler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case guard <- struct{}{}:
				if err := a.pipeline.Run(ctx); err != nil {
					log.Error("scheduled invocation failed", zap.Error(err))
				}
				<-guard
			default:
				log.Warn("invocation already in progress, skipping tick")
			}
		}
	}
}

// setup loads configuration and initializes structured logging.
func setup() (*config.Options, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New()
	if err := log.Init("Info"); err != nil {
		return nil, nil, err
	}
	return cfg, log.Log, nil
}
