// Command migrate applies or rolls back the database schema.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/ngtax/ngtax/internal/app"
	"github.com/ngtax/ngtax/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping migrations")
		return
	}

	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	if cfg.PGDSN == "" {
		logger.Error("PG_DSN is required")
		os.Exit(1)
	}

	if *down {
		if err := db.MigrateDown(cfg.PGDSN); err != nil {
			logger.Error("migrate down", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("rolled back one migration")
		return
	}
	if err := db.Migrate(cfg.PGDSN); err != nil {
		logger.Error("migrate up", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")
}
