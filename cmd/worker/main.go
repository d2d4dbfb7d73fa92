package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/config"
	"github.com/noted-app/noted-api/internal/engine"
	"github.com/noted-app/noted-api/internal/logger"
	"github.com/noted-app/noted-api/internal/queue"
	"github.com/noted-app/noted-api/internal/storage"
	"github.com/noted-app/noted-api/internal/storage/diskv"
	"github.com/noted-app/noted-api/internal/storage/postgres"
	"github.com/noted-app/noted-api/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

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
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := eng.Load(loadCtx); err != nil {
		loadCancel()
		zapLogger.Fatal("failed_to_load_state", zap.Error(err))
	}
	loadCancel()

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	notifier := workers.NewReminderNotifier(eng, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		zapLogger.Info("worker_shutting_down")
		cancel()
	}()

	if err := notifier.Consume(ctx, jobQueue, cfg.RabbitMQPrefetch); err != nil {
		zapLogger.Fatal("worker_stopped_with_error", zap.Error(err))
	}
	zapLogger.Info("worker_exited")
}

func openStore(cfg *config.Config, zapLogger *zap.Logger) (storage.Store, error) {
	if cfg.UsePostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return postgres.Open(ctx, cfg.DatabaseURL, zapLogger)
	}
	return diskv.Open(cfg.DataDir, zapLogger)
}
