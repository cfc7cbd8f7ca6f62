package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rundown-orchestrator/internal/orchestrator"
	"rundown-orchestrator/internal/platform/config"
	"rundown-orchestrator/internal/platform/logger"
	"rundown-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var (
		port   string
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the playout HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := studioSettings(flagStudio)
			if err != nil {
				return err
			}

			repo, closeStore, err := openRepository(cmd.Context(), dbPath, log)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := orchestrator.NewService(repo, settings, orchestrator.WithLogger(log))
			srv := &http.Server{Addr: ":" + port, Handler: newRouter(svc, log, metrics.New())}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			log.Info("server starting",
				"port", port,
				"db_path", dbPath,
				"fallback_part_duration", settings.FallbackPartDuration,
				"force_quickloop_autonext", string(settings.ForceQuickLoopAutoNext),
				"log_level", flagLogLevel,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			log.Info("shutdown signal received, draining connections")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}

			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", config.GetEnv("PORT", "8080"), "HTTP port (or PORT env)")
	cmd.Flags().StringVar(&dbPath, "db", config.GetEnv("DB_PATH", ""), "SQLite database path; empty keeps state in memory (or DB_PATH env)")
	return cmd
}

// openRepository returns a SQLite-backed repository when dbPath is set and an
// in-memory one otherwise. The returned func closes the store.
func openRepository(ctx context.Context, dbPath string, log *slog.Logger) (*orchestrator.StoreRepository, func(), error) {
	if dbPath == "" {
		return orchestrator.NewInMemoryRepository(), func() {}, nil
	}
	st, err := orchestrator.NewSQLiteStore(dbPath, log)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return orchestrator.NewRepository(st), func() { st.Close() }, nil
}

// newRouter wires the playout API, request logging and metrics.
func newRouter(svc *orchestrator.Service, log *slog.Logger, met *metrics.Metrics) http.Handler {
	h := orchestrator.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met, "/metrics"))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActivePlaylists(svc.ActivePlaylistCount(r.Context())) }).ServeHTTP(w, r)
	})
	h.Routes(r)
	return r
}
