package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/project-tracker-api/internal/config"
	"github.com/BuzzLyutic/project-tracker-api/internal/db"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	pgrepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/postgres"
	sqliterepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/sqlite"
	"github.com/BuzzLyutic/project-tracker-api/internal/seed"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	var store repo.Store
	switch cfg.DBDriver {
	case config.DriverSQLite:
		var conn *sql.DB
		conn, err = db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open sqlite", zap.Error(err))
		}
		defer conn.Close()
		store = sqliterepo.NewStore(conn)
	default:
		var pool *pgxpool.Pool
		pool, err = db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to Database", zap.Error(err))
		}
		defer pool.Close()
		// Сидер всегда приводит схему к актуальной.
		if err := db.MigratePostgres(ctx, pool); err != nil {
			logger.Fatal("Failed to migrate", zap.Error(err))
		}
		store = pgrepo.NewStore(pool)
	}

	res, err := seed.Run(ctx, store, seed.Options{}, logger)
	if err != nil {
		logger.Fatal("Seeding failed", zap.Error(err))
	}
	logger.Info("Seeding completed",
		zap.Int("users", len(res.Users)),
		zap.Int64("project_id", res.Project.ID),
		zap.Int("tasks_created", res.TasksCreated),
	)
}
