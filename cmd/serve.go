package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/framestitch/internal/blob"
	"github.com/lehigh-university-libraries/framestitch/internal/config"
	"github.com/lehigh-university-libraries/framestitch/internal/feedback"
	"github.com/lehigh-university-libraries/framestitch/internal/handlers"
	"github.com/lehigh-university-libraries/framestitch/internal/images"
	"github.com/lehigh-university-libraries/framestitch/internal/media"
	"github.com/lehigh-university-libraries/framestitch/internal/models"
	"github.com/lehigh-university-libraries/framestitch/internal/state"
	"github.com/lehigh-university-libraries/framestitch/internal/stitch"
	"github.com/lehigh-university-libraries/framestitch/internal/tracking"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the session API",
		Long: `Starts the Framestitch HTTP API on the specified port.

Settings are read from the environment (and a .env file when present):
STITCH_API, MATOMO_URL, MATOMO_SITE_ID, MONGODB_URI, MONGODB_DBNAME,
BASIC_AUTH_ENABLED, BASIC_AUTH_USERNAME, BASIC_AUTH_PASSWORD,
HISTORY_LIMIT, SNAPSHOT_PANORAMA, RESOLVE_TIMEOUT and MAX_UPLOAD_BYTES.`,
		Example: `  # Start server on default port 8888
  framestitch serve

  # Start server on custom port
  framestitch serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config) error {
	registry := blob.New()

	videoProber := media.NewExifToolProber()
	defer func() {
		if err := videoProber.Close(); err != nil {
			slog.Warn("Failed to stop exiftool", "err", err)
		}
	}()
	resolver := media.NewResolver(registry,
		media.WithTimeout(cfg.Media.ResolveTimeout),
		media.WithProber(models.MediaTypeVideo, videoProber),
	)

	var tracker state.Tracker = tracking.Nop{}
	if cfg.Matomo.URL != "" && cfg.Matomo.SiteID != "" {
		matomo := tracking.NewMatomo(cfg.Matomo.URL, cfg.Matomo.SiteID)
		defer matomo.Wait()
		tracker = matomo
		slog.Info("Matomo tracking configured", "url", cfg.Matomo.URL, "site_id", cfg.Matomo.SiteID)
	}

	var feedbackStore feedback.Store = feedback.NewMemoryStore()
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoStore, err := feedback.NewMongoStore(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				slog.Warn("Failed to disconnect from MongoDB", "err", err)
			}
		}()
		feedbackStore = mongoStore
	} else {
		slog.Warn("MONGODB_URI not set, feedback is kept in memory")
	}

	handler := handlers.New(handlers.Deps{
		Blobs:    registry,
		Resolver: resolver,
		Tracker:  tracker,
		Stitcher: stitch.NewClient(cfg.Stitch.API, registry, cfg.Stitch.Timeout),
		Fetcher:  images.NewFetcher(),
		Feedback: feedbackStore,
		StoreOptions: state.Options{
			HistoryLimit:     cfg.History.Limit,
			SnapshotPanorama: cfg.History.SnapshotPanorama,
		},
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
	})

	// Set up routes
	api := handler.Routes()
	api.Handle("GET /metrics", promhttp.Handler())

	var protected http.Handler = api
	if cfg.Auth.Enabled {
		protected = handlers.BasicAuth(cfg.Auth.Username, cfg.Auth.Password, api)
		slog.Info("Basic auth enabled", "username", cfg.Auth.Username)
	}

	mux := http.NewServeMux()
	mux.Handle("/", protected)
	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	addr := ":" + cfg.Server.Port
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Framestitch API available", "addr", addr, "url", "http://localhost"+addr, "stitch_api", cfg.Stitch.API)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for context cancellation (Ctrl+C) or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
		// Give server 5 seconds to shut down gracefully
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "err", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}
}
