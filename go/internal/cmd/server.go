package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/nexora/go/internal/auth"
	"github.com/mcdev12/nexora/go/internal/config"
	"github.com/mcdev12/nexora/go/internal/distractions"
	"github.com/mcdev12/nexora/go/internal/focus"
	"github.com/mcdev12/nexora/go/internal/gateway"
	"github.com/mcdev12/nexora/go/internal/nav"
	"github.com/mcdev12/nexora/go/internal/notifications"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/rewards"
	"github.com/mcdev12/nexora/go/internal/subscriptions"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and Connect API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer services.Close()

	if err := services.Focus.ClearStaleSession(ctx); err != nil {
		log.Warn().Err(err).Msg("could not clear stale focus session")
	}
	services.Start(ctx)
	if err := services.StartLive(ctx); err != nil {
		return err
	}

	server := setupServer(cfg, services)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func setupServer(cfg *config.Config, services *Services) *http.Server {
	r := mux.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	setupHealthCheck(r)
	r.Handle("/metrics", services.Metrics.Handler()).Methods(http.MethodGet)

	registerServices(r, services, cfg.Server.RequireAuth)

	return &http.Server{
		Addr:    cfg.Addr(),
		Handler: h2c.NewHandler(c.Handler(r), &http2.Server{}),
	}
}

type routeRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

func registerServices(r *mux.Router, services *Services, requireAuth bool) {
	// Public routes
	auth.NewService(services.Auth, services.Guard).RegisterRoutes(r)
	nav.NewService(services.Guard).RegisterRoutes(r)
	gateway.NewService(services.Gateway).RegisterRoutes(r)

	// Connect timer service
	timerPath, timerHandler := services.Timer.Handler()
	r.PathPrefix(timerPath).Handler(timerHandler)

	// Private routes
	private := r.NewRoute().Subrouter()
	if requireAuth {
		private.Use(services.Guard.Middleware)
	}
	for _, svc := range []routeRegistrar{
		focus.NewService(services.Focus),
		progress.NewService(services.Progress),
		rewards.NewService(services.Rewards),
		notifications.NewService(services.Notifications),
		distractions.NewService(services.Distractions),
		subscriptions.NewService(services.Subscriptions),
	} {
		svc.RegisterRoutes(private)
	}
}

func setupHealthCheck(r *mux.Router) {
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	}).Methods(http.MethodGet)
}
