package main

// Run database migrations:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate -down    revert the latest migration

import (
	"context"
	"flag"
	"os"

	"constructia-backend/internal/shared/config"
	"constructia-backend/internal/shared/storage/db"
	"constructia-backend/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "revert the most recent migration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	run := db.RunMigrations
	if *down {
		run = db.RollbackMigration
	}
	err = run(ctx, sqlDB)
	sqlDB.Close()
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error(), "down": *down})
		os.Exit(1)
	}
}
