package main

import (
	"flag"
	"log"

	"cpa-academy/internal/config"
	"cpa-academy/internal/database"
	"cpa-academy/internal/logger"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of applying pending ones")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	if *down > 0 {
		if err := database.RollbackMigrations(cfg.MigrationURL(), *down); err != nil {
			l.Fatal("Failed to roll back migrations", zap.Error(err))
		}
		return
	}

	// Run migrations
	if err := database.RunMigrations(cfg.MigrationURL()); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
}
