package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rongsox/dashboard/internal"
	"github.com/rongsox/dashboard/internal/backend"
	"github.com/rongsox/dashboard/internal/handler"
	"github.com/rongsox/dashboard/internal/jobs"
	"github.com/rongsox/dashboard/internal/metrics"
	"github.com/rongsox/dashboard/internal/middleware"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/repository"
	"github.com/rongsox/dashboard/internal/service"
	"github.com/rongsox/dashboard/internal/storage"
	"github.com/rongsox/dashboard/internal/validate"
	"github.com/rongsox/dashboard/internal/worker"
	"github.com/rongsox/dashboard/web"
)

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, skipMigrations bool) error {
	cfg, logger, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if !skipMigrations {
		if err := internal.RunMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	logger.Info("Database ready")

	queries := repository.New(db)
	isSecure := !cfg.IsDevelopment()

	// ==========================================================================
	// Backend, sessions and list cache
	// ==========================================================================

	api, err := backend.New(backend.Config{
		BaseURL:            cfg.BackendURL,
		Timeout:            cfg.BackendTimeout,
		BreakerFailures:    uint32(cfg.BreakerFailures),
		BreakerTimeout:     cfg.BreakerTimeout,
		BreakerInterval:    cfg.BreakerInterval,
		BreakerMaxRequests: uint32(cfg.BreakerMaxRequests),
	}, logger)
	if err != nil {
		return fmt.Errorf("backend client initialization failed: %w", err)
	}

	sessions := service.NewSessionService(queries, api, service.SessionServiceConfig{
		SessionDuration: cfg.SessionDuration,
	}, logger)

	cacheStore, err := newCacheStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cache initialization failed: %w", err)
	}
	lists := querycache.NewLists(cacheStore, cfg.CacheTTL, logger)
	defer lists.Close()
	logger.Info("List cache ready", "driver", cfg.CacheDriver, "ttl", cfg.CacheTTL)

	// ==========================================================================
	// Storage, receipts and background jobs
	// ==========================================================================

	store, err := storage.New(storage.Config{
		Provider: cfg.StorageProvider,
		Local: storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	var enqueue service.EnqueueThumbnail
	if cfg.WorkerEnabled {
		enqueue = func(ctx context.Context, receiptID uuid.UUID) error {
			_, err := worker.EnqueueGenerateReceiptThumbnail(ctx, queries, receiptID)
			return err
		}
	}
	receipts := service.NewReceiptService(queries, store, service.NewImagingProcessor(), enqueue, logger)

	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		jobWorker, err = newWorker(cfg, db, queries, sessions, receipts, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Start(ctx)
	}

	// ==========================================================================
	// Templates and handlers
	// ==========================================================================

	var templates fs.FS = web.Templates()
	if cfg.TemplatesDir != "" {
		templates = os.DirFS(cfg.TemplatesDir)
	}
	renderer, err := handler.NewRenderer(handler.RendererConfig{
		FS:     templates,
		Logger: logger,
		IsDev:  cfg.IsDevelopment(),
		Minify: !cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.ListTemplates()))

	validator := validate.New()

	authMw := middleware.NewAuthMiddleware(sessions, logger, isSecure)
	loginLimiter := middleware.NewLoginRateLimiter(logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	app := http.NewServeMux()

	protect := authMw.RequireSession
	superAdminOnly := middleware.Stack(authMw.RequireSession, authMw.RequireSuperAdmin)

	handler.NewAuthHandler(sessions, validator, renderer, logger, isSecure).RegisterRoutes(app, loginLimiter.LimitLogin)
	handler.NewDashboardHandler(api, lists, renderer, logger).RegisterRoutes(app, protect)
	handler.NewBankHandler(api, lists, validator, renderer, logger).RegisterRoutes(app, protect)
	handler.NewStuffHandler(api, receipts, lists, validator, renderer, logger).RegisterRoutes(app, protect)
	handler.NewCustomerHandler(api, lists, validator, renderer, logger).RegisterRoutes(app, protect)
	handler.NewAdminHandler(api, lists, validator, renderer, logger).RegisterRoutes(app, superAdminOnly)
	handler.NewTransactionHandler(api, receipts, lists, validator, renderer, logger).RegisterRoutes(app, protect)
	handler.NewReceiptHandler(receipts, logger).RegisterRoutes(app, protect)

	app.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)
	if metricsAuth.Open() && !cfg.IsDevelopment() {
		logger.Warn("Metrics endpoint has no credentials", "hint", "set METRICS_USERNAME and METRICS_PASSWORD")
	}
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	if cfg.StorageProvider == storage.ProviderLocal {
		files := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", authMw.WithSession(protect(http.StripPrefix("/files/", files))))
	}

	mux.Handle("/", authMw.WithSession(app))

	logging := middleware.NewRequestLoggingMiddleware(logger)
	security := middleware.NewSecurityHeadersMiddleware(isSecure, imageOrigins(cfg)...)
	csrfMw := middleware.NewCSRFMiddleware(logger, isSecure)

	chain := middleware.Stack(metrics.Middleware, logging.Handler, security.Handler, csrfMw.Handler)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", "error", err)
		}
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func newCacheStore(ctx context.Context, cfg *internal.Config) (querycache.Store, error) {
	if cfg.CacheDriver == "redis" {
		return querycache.NewRedisStore(ctx, cfg.RedisURL, "rongsox:lists:")
	}
	return querycache.NewMemoryStore(time.Minute), nil
}

func newWorker(
	cfg *internal.Config,
	db *sql.DB,
	queries *repository.Queries,
	sessions service.SessionService,
	receipts service.ReceiptService,
	logger *slog.Logger,
) (*worker.Worker, error) {
	workerCfg := worker.DefaultConfig()
	workerCfg.Concurrency = cfg.WorkerConcurrency
	workerCfg.PollInterval = cfg.WorkerPollInterval
	workerCfg.JobTimeout = cfg.WorkerJobTimeout
	workerCfg.ShutdownTimeout = cfg.WorkerShutdownAfter

	w, err := worker.New(db, queries, workerCfg, logger)
	if err != nil {
		return nil, err
	}
	w.Register(jobs.NewPurgeSessionsHandler(sessions, logger))
	w.Register(jobs.NewReceiptThumbnailHandler(receipts, logger))
	w.Every(cfg.SessionPurgeEvery, worker.JobTypePurgeExpiredSessions, worker.PurgeExpiredSessionsPayload{},
		worker.WithPriority(worker.PriorityLow), worker.WithMaxAttempts(1))
	return w, nil
}

// imageOrigins lists the hosts pages may load images from: stuff pictures
// served by the backend and archived receipts in storage.
func imageOrigins(cfg *internal.Config) []string {
	var origins []string
	for _, raw := range []string{cfg.BackendURL, cfg.LocalStorageURL, cfg.R2PublicURL} {
		if o := origin(raw); o != "" {
			origins = append(origins, o)
		}
	}
	if cfg.StorageProvider == storage.ProviderR2 {
		origins = append(origins, "https://*.r2.cloudflarestorage.com")
	}
	return origins
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
