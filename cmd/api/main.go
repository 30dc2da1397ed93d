package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coinwatch/coinwatch-backend/internal/api"
	"github.com/coinwatch/coinwatch-backend/internal/coingecko"
	"github.com/coinwatch/coinwatch-backend/internal/config"
	"github.com/coinwatch/coinwatch-backend/internal/favorites"
	"github.com/coinwatch/coinwatch-backend/internal/jobs"
	"github.com/coinwatch/coinwatch-backend/internal/log"
	"github.com/coinwatch/coinwatch-backend/internal/metrics"
	"github.com/coinwatch/coinwatch-backend/internal/stream"
	"github.com/coinwatch/coinwatch-backend/internal/tracker"
	"github.com/coinwatch/coinwatch-backend/internal/view"
	"github.com/coinwatch/coinwatch-backend/pkg/kv"

	// Register kv backends.
	_ "github.com/coinwatch/coinwatch-backend/pkg/kv/memory"
	_ "github.com/coinwatch/coinwatch-backend/pkg/kv/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting coinwatch API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("coinwatch-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Setup the kv store backing durable favorites
	kvStore, err := kv.NewStoreFromConfig(kv.Config{
		Backend:  kv.Backend(cfg.Cache.Backend),
		RedisURL: cfg.Cache.RedisURL,
		Logger: func(msg string, fields ...any) {
			logger.Warnw(msg, fields...)
		},
	})
	if err != nil {
		logger.Fatalw("Failed to setup kv store", "error", err)
	}
	defer kvStore.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kvStore.Ping(ctx); err != nil {
		logger.Fatalw("KV store ping failed", "error", err)
	}
	logger.Infow("KV store ready", "backend", cfg.Cache.Backend)

	// Load persisted favorites and build the tracker
	favStore := favorites.NewStore(kvStore, logger)
	saved := favStore.Load(ctx)
	logger.Infow("Favorites loaded", "count", len(saved))

	trackerStore := tracker.NewStore(saved,
		tracker.WithPagination(cfg.Refresh.StartPage, cfg.Refresh.PageSize))

	provider := coingecko.NewClient(cfg.Provider.BaseURL, cfg.Provider.VsCurrency, cfg.Provider.Timeout, logger)
	svc := tracker.NewService(trackerStore, provider, favStore, logger, metricsObj)

	// Stream hub broadcasts a version marker on every applied transition;
	// clients re-fetch the view over HTTP.
	hub := stream.NewHub(logger, metricsObj, cfg.Security.CORSAllowedOrigins)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	svc.OnChange(func() {
		st := svc.State()
		hub.Publish("snapshot", struct {
			Version     uint64 `json:"version"`
			Loading     bool   `json:"loading"`
			Assets      int    `json:"assets"`
			LastUpdated *int64 `json:"lastUpdated"`
		}{
			Version: st.Version,
			Loading: st.Loading,
			Assets:  len(st.Assets),
			LastUpdated: func() *int64 {
				if st.LastUpdated == nil {
					return nil
				}
				ts := st.LastUpdated.Unix()
				return &ts
			}(),
		})
	})

	// Start the background refresher
	refresher := jobs.NewRefresher(svc, logger, jobs.RefresherConfig{
		Interval: cfg.Refresh.Interval,
	})
	refresher.Start(hubCtx)
	defer refresher.Stop()

	// Setup API handler and middleware
	handler := api.NewHandler(svc, view.NewEngine(), hub, kvStore, logger, metricsHandler)
	middleware := api.NewMiddleware(logger, metricsObj)
	router := handler.Routes(middleware, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM)

	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // stream endpoints hold connections open
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		refresher.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}

		logger.Infow("Server stopped")
	}
}
