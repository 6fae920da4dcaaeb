// Command initdb creates the drilling data tables and exits. Useful for
// provisioning a database ahead of the first deployment.
package main

import (
	"flag"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/drillhub/drillview/config"
	"github.com/drillhub/drillview/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	logger := logrus.New()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := storage.Connect(&cfg.PostgreSQL)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := storage.RunMigrations(db.DB()); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	logger.Info("Database initialized")
}
