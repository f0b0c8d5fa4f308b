package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/winning-app/winning/api"
)

// newServeCmd starts the HTTP server.
//
// GRACEFUL SHUTDOWN:
//
//	On SIGINT/SIGTERM:
//	1. Stop the reconciliation scheduler
//	2. Stop accepting new connections
//	3. Wait for active requests to complete (30s timeout)
//	4. Close database connection
func newServeCmd(v *viper.Viper, load func() (*app, error)) *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Example: `  winning serve
  winning serve --port 3000 --db ./data/winning.db
  winning serve --db :memory: --seed accountability-circle --demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(cmd.Context(), a, seed)
		},
	}

	cmd.Flags().Int("port", 0, "HTTP server port")
	cmd.Flags().Duration("reconcile-interval", 0, "win reconciliation period, 0 keeps the configured value")
	cmd.Flags().StringVar(&seed, "seed", "", "load a demo scenario before serving")
	cmd.Flags().Bool("demo", false, "serve the demo scenario endpoints")
	bind(v, cmd.Flags().Lookup("port"), "port")
	bind(v, cmd.Flags().Lookup("reconcile-interval"), "reconcile_interval")
	bind(v, cmd.Flags().Lookup("demo"), "demo")
	return cmd
}

func serve(ctx context.Context, a *app, seed string) error {
	log := a.logger

	if seed != "" {
		resp, err := a.handler.Seed(ctx, seed)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", seed, err)
		}
		for user, token := range resp.Sessions {
			log.Info("seeded session", zap.String("user_id", user), zap.String("token", token))
		}
	}

	scheduler := a.handler.Scheduler
	scheduler.CheckInterval = a.cfg.ReconcileInterval
	scheduler.Enabled = a.cfg.ReconcileInterval > 0
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Port),
		Handler: api.NewRouter(a.handler, api.RouterOptions{
			AllowedOrigins: a.cfg.AllowedOrigins,
			Demo:           a.cfg.Demo,
			Admins:         a.cfg.AdminUsers,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Port)),
			zap.String("db", a.cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
