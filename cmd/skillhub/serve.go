package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/skillhub/internal/adapters/http/api"
	"github.com/okian/skillhub/internal/adapters/http/site"
	"github.com/okian/skillhub/internal/adapters/http/swagger"
	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/auth"
	"github.com/okian/skillhub/internal/config"
	"github.com/okian/skillhub/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			env, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			if addr != "" {
				env.cfg.Addr = addr
			}
			return runServe(ctx, env)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func runServe(ctx context.Context, env *runtimeEnv) error {
	log := env.log
	if err := env.svc.Start(ctx); err != nil {
		env.Close()
		return err
	}
	defer env.svc.Stop()
	if !env.svc.HasStore() {
		log.Warn(ctx, "no key-value store configured; ratings, overrides and contributions are disabled")
	}
	if env.cfg.AdminSecret == "" {
		log.Warn(ctx, "no admin secret configured; admin routes will refuse every request")
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              env.cfg.Addr,
		Handler:           newHandler(ctx, env.cfg, env.svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", env.cfg.Addr))
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
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newHandler assembles the API, its reference docs and the front end on one
// mux behind the request logger.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) http.Handler {
	mux := http.NewServeMux()

	gate := auth.NewGate(cfg.AdminSecret, auth.WithTTL(cfg.TokenTTL))
	api.NewServer(svc, gate, svc,
		api.WithBaseURL(cfg.BaseURL),
		api.WithSiteTitle(cfg.SiteTitle),
	).Register(mux)

	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	return api.RequestLogger(mux)
}
