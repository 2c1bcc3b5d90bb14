package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"todo-app/backend/internal/database"
	"todo-app/backend/internal/jobs"
	"todo-app/backend/internal/routes"
)

const (
	shutdownTimeout       = 10 * time.Second
	limiterCleanupSpec    = "@every 10m"
	limiterIdleExpiration = 30 * time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTPサーバーを起動します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Env == "production" {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if migrate {
				if err := database.Migrate(cfg.DB, database.Up, logger); err != nil {
					return err
				}
			}

			db, err := database.Open(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()

			app, err := routes.SetupRouter(cfg, db, logger, nil)
			if err != nil {
				return err
			}

			scheduler := jobs.NewScheduler(logger)
			if err := scheduler.AddResetTokenCleanup(cfg.ResetTokenCleanupSchedule, app.Users, app.Metrics); err != nil {
				return err
			}
			if err := scheduler.AddLimiterCleanup(limiterCleanupSpec, app.LoginLimiter, limiterIdleExpiration); err != nil {
				return err
			}
			scheduler.Start()

			srv := &http.Server{
				Addr:              net.JoinHostPort("", cfg.Port),
				Handler:           app.Router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.WithField("addr", srv.Addr).Info("server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			scheduler.Stop(shutdownCtx)
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "起動前にマイグレーションを適用する")
	return cmd
}
