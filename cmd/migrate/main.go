package main

import (
	"github.com/econtract/backend/internal/infrastructure/config"
	"github.com/econtract/backend/internal/infrastructure/logger"
	"github.com/econtract/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Applies the schema migrations and exits. Intended for deployments that
// migrate ahead of rolling out the server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Level, "console", "stdout")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Migrations applied")
}
