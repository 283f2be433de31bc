package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/currency-ledger/internal/api"
	"github.com/sheikh-saqib/currency-ledger/internal/config"
	"github.com/sheikh-saqib/currency-ledger/internal/events"
	"github.com/sheikh-saqib/currency-ledger/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"github.com/sheikh-saqib/currency-ledger/internal/ledger"
	"github.com/sheikh-saqib/currency-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/currency-ledger/internal/storage/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("cannot create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("cannot initialise storage", zap.Error(err))
	}
	defer closeStore()

	var publisher interfaces.EventPublisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
		logger.Info("publishing events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	defer publisher.Close()

	ledgerService := ledger.NewLedger(store)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewRouter(ledgerService, publisher, logger),
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", server.Addr), zap.String("storage", cfg.StorageDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server gracefully stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (interfaces.LedgerStore, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage, balances are lost on restart")
		return memory.NewMemoryLedgerStore(), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RunMigrations {
		if err := postgres.Migrate(db, logger); err != nil {
			db.Close()
			return nil, nil, err
		}
	}

	logger.Info("database connection established")
	return postgres.NewPostgresLedgerStore(db), func() { db.Close() }, nil
}
