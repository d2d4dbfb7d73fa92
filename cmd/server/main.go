package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/config"
	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/handlers"
	"github.com/noted-app/noted-api/internal/logger"
	"github.com/noted-app/noted-api/internal/middleware"
	"github.com/noted-app/noted-api/internal/queue"
	"github.com/noted-app/noted-api/internal/storage"
	"github.com/noted-app/noted-api/internal/storage/diskv"
	"github.com/noted-app/noted-api/internal/storage/postgres"
	"github.com/noted-app/noted-api/internal/telemetry"
	"github.com/noted-app/noted-api/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Bool("postgres", cfg.UsePostgres()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "noted-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	store, err := openStore(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zapLogger.Warn("failed_to_close_storage", zap.Error(err))
		}
	}()

	eng := engine.New(store, zapLogger)
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := eng.MigrateStandaloneTasks(startCtx); err != nil {
		startCancel()
		zapLogger.Fatal("failed_to_migrate_standalone_tasks", zap.Error(err))
	}
	if err := eng.Load(startCtx); err != nil {
		startCancel()
		zapLogger.Fatal("failed_to_load_state", zap.Error(err))
	}
	startCancel()

	// The job queue is optional: without a broker the API runs, only
	// reminder delivery is off.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Info("job_queue_disabled")
	}

	noteHandler := handlers.NewNoteHandler(eng, zapLogger)
	taskHandler := handlers.NewTaskHandler(eng, zapLogger)
	folderHandler := handlers.NewFolderHandler(eng, zapLogger)
	healthChecker := handlers.NewHealthChecker(store, jobQueue, zapLogger)

	r := mux.NewRouter()

	// Middleware, outermost first.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("noted-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.Health).Methods("GET")

	apiRouter := r.PathPrefix("/api").Subrouter()
	if cfg.RedisURL != "" {
		redisClient, err := middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			// Rate limiting is protective, not load-bearing; run without
			// it when Redis is unreachable.
			zapLogger.Warn("rate_limiting_disabled", zap.Error(err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimitPerMin)
			if err != nil {
				zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
			}
			apiRouter.Use(rateLimitMW)
			zapLogger.Info("rate_limiting_enabled", zap.Int("per_minute", cfg.RateLimitPerMin))
		}
	}

	noteHandler.RegisterRoutes(apiRouter.PathPrefix("/notes").Subrouter())
	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	folderHandler.RegisterRoutes(apiRouter.PathPrefix("/folders").Subrouter())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(r)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        corsHandler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	scanCtx, scanCancel := context.WithCancel(context.Background())
	defer scanCancel()
	if jobQueue != nil {
		scanner := workers.NewReminderScanner(eng, jobQueue, zapLogger, cfg.ReminderScanInterval)
		go scanner.Run(scanCtx)
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	scanCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}
	zapLogger.Info("server_exited")
}

// openStore picks the backend: PostgreSQL when a database URL is configured,
// the file store otherwise.
func openStore(cfg *config.Config, zapLogger *zap.Logger) (storage.Store, error) {
	if cfg.UsePostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		store, err := postgres.Open(ctx, cfg.DatabaseURL, zapLogger)
		if err != nil {
			return nil, err
		}
		zapLogger.Info("connected_to_database")
		return store, nil
	}
	return diskv.Open(cfg.DataDir, zapLogger)
}

// connectQueue retries the broker connection with exponential backoff to
// ride out RabbitMQ startup delays.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	delay := 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}
		lastErr = err
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
		delay *= 2
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
	}
	return nil, lastErr
}
