package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/s2plab/internal/api"
	"github.com/RMahshie/s2plab/internal/catalog"
	"github.com/RMahshie/s2plab/internal/config"
	"github.com/RMahshie/s2plab/internal/loader"
	"github.com/RMahshie/s2plab/internal/observability"
	"github.com/RMahshie/s2plab/internal/repository"
	"github.com/RMahshie/s2plab/internal/repository/postgres"
	"github.com/RMahshie/s2plab/internal/storage"
	"github.com/RMahshie/s2plab/pkg/models"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogging(cfg.Log, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise tracing")
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing)

	metrics, err := observability.NewCollector(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	store, src, err := setupStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to set up storage")
	}

	// Load measurements; the API answers 503 until a load succeeds
	svc := catalog.NewService(src, catalog.Options{
		Workers: cfg.Data.LoadWorkers,
		Metrics: metrics,
	})
	if _, err := svc.Reload(ctx); err != nil {
		log.Error().Err(err).Msg("Initial load failed")
	}

	if cfg.Data.Watch {
		startWatcher(ctx, cfg, svc, metrics)
	}

	var reports repository.ReportRepository
	if cfg.ReportsEnabled() {
		db, err := setupDatabase(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up database")
		}
		defer db.Close()
		reports = postgres.NewPostgresReportRepository(db)
	}

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(metrics.Middleware)
	router.Use(middleware.Compress(5))

	// Create Huma API
	humaConfig := huma.DefaultConfig("S2P Lab API", version)
	humaConfig.DocsPath = "/api/docs"
	humaConfig.OpenAPIPath = "/api/openapi"
	humaAPI := humachi.New(router, humaConfig)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = version
		resp.Body.Time = time.Now()
		if snap, err := svc.Snapshot(); err == nil {
			resp.Body.Networks = len(snap.Result.Loaded)
		} else {
			resp.Body.Status = "loading"
		}
		return resp, nil
	})

	deps := api.Dependencies{
		Catalog:      svc,
		Store:        store,
		UploadPrefix: cfg.Storage.Prefix,
		Reports:      reports,
		TargetHz:     cfg.Data.TargetFreqHz,
	}
	api.RegisterRoutes(humaAPI, deps)

	router.Handle("/metrics", metrics.Handler())

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting S2P Lab API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupStorage returns the object store (nil for the local backend) and the
// source measurements are loaded from
func setupStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStore, loader.Source, error) {
	s3Cfg := storage.S3Config{
		Bucket:    cfg.Storage.Bucket,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKeyID,
		SecretKey: cfg.Storage.SecretAccessKey,
	}

	var store storage.ObjectStore
	var err error
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Service(s3Cfg)
	case "minio":
		store, err = storage.NewMinioService(s3Cfg)
	default:
		log.Info().Str("dir", cfg.Data.Dir).Msg("Loading measurements from local directory")
		return nil, loader.NewDirSource(cfg.Data.Dir, cfg.Data.Pattern), nil
	}
	if err != nil {
		return nil, nil, err
	}

	store = storage.WithBreaker(store, storage.DefaultBreakerConfig(cfg.Storage.Backend))
	if err := storage.EnsureBucket(ctx, store); err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("backend", cfg.Storage.Backend).
		Str("bucket", cfg.Storage.Bucket).
		Str("prefix", cfg.Storage.Prefix).
		Msg("Loading measurements from object storage")
	return store, loader.NewObjectSource(store, cfg.Storage.Prefix, cfg.Data.Pattern), nil
}

func setupDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := postgres.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Msg("Report archive enabled")
	return db, nil
}

func startWatcher(ctx context.Context, cfg *config.Config, svc catalog.Service, metrics *observability.Collector) {
	if cfg.Storage.Backend != "local" {
		log.Warn().Str("backend", cfg.Storage.Backend).Msg("WATCH_DATA_DIR only applies to the local backend")
		return
	}

	w, err := catalog.NewWatcher(svc, cfg.Data.Dir, cfg.Data.Pattern, catalog.WatcherOptions{
		OnReload: metrics.ObserveWatchTrigger,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to start data directory watcher")
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Data directory watcher stopped")
		}
	}()
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
