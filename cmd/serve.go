package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := c.app(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

func newServer(a *app) *http.Server {
	mh := handlers.NewMaintenanceHandler(a.reminder, a.queries, a.lifecycle, a.settings, a.logger)
	sh := handlers.NewSettingsHandler(a.settings, a.ledger)
	router := handlers.NewRouter(mh, sh, middleware.NewAuthMiddleware(a.auth), a.registry)

	limiter := middleware.NewRateLimitMiddleware(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst)
	handler := middleware.RequestLogger(a.logger)(limiter.RateLimit(router))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}
}

// newScheduler ticks the sweep on the configured spec. The sweep's own throttle decides
// whether a tick actually queries.
func newScheduler(ctx context.Context, a *app) (*cron.Cron, error) {
	sched := cron.New()
	err := sched.AddFunc(a.cfg.Scheduler.Spec, func() {
		res := a.reminder.Check(ctx, false)
		a.logger.WithField("reason", res.Reason).Debug("Scheduled sweep finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler spec: %w", err)
	}
	return sched, nil
}

func serve(ctx context.Context, a *app) error {
	sched, err := newScheduler(ctx, a)
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := newServer(a)
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
