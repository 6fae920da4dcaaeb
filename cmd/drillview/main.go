package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/drillhub/drillview/api"
	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/ingest"
	"github.com/drillhub/drillview/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := run(*configPath, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

func run(configPath string, logger *logrus.Logger) error {
	cfg, err := config.Load(configPath, logger)
	if err != nil {
		return err
	}

	db, err := storage.Connect(&cfg.PostgreSQL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.RunMigrations(db.DB()); err != nil {
		return err
	}

	ingestor := ingest.New(db, cfg.Ingest, logger)
	apiServer := api.NewServer(cfg.Server, cfg.Ingest.MaxDuration, db, ingestor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := apiServer.Start(ctx); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("Received shutdown signal, shutting down API server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down API server...")
	}

	return apiServer.Stop()
}
