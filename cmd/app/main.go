package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BuzzLyutic/project-tracker-api/internal/config"
	"github.com/BuzzLyutic/project-tracker-api/internal/db"
	"github.com/BuzzLyutic/project-tracker-api/internal/handler"
	"github.com/BuzzLyutic/project-tracker-api/internal/repo"
	pgrepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/postgres"
	sqliterepo "github.com/BuzzLyutic/project-tracker-api/internal/repo/sqlite"
	"github.com/BuzzLyutic/project-tracker-api/internal/service"
	"github.com/BuzzLyutic/project-tracker-api/internal/worker"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Подключаем логгер
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Подключаем БД
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err)) // дальнейшая работа теряет смысл
	}
	defer closeStore()

	auth := service.NewAuthService(store.Users, cfg.JWTSecret, cfg.TokenTTL)
	router := handler.NewRouter(handler.Services{
		Auth:     auth,
		Tasks:    service.NewTaskService(store),
		Projects: service.NewProjectService(store.Projects),
		Users:    service.NewUserService(store.Users),
	}, cfg.CORSOrigins, logger)

	if cfg.JanitorInterval > 0 {
		janitor := worker.NewJanitor(store.Tasks, logger, cfg.JanitorInterval, cfg.IdempotencyTTL)
		janitor.Start(ctx)
		defer janitor.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() { // Запуск сервера и обработка ошибок
		logger.Info("Server started", zap.String("addr", srv.Addr), zap.String("driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
		return
	}
	logger.Info("Server stopped successfully!")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return repo.Store{}, nil, err
		}
		logger.Info("Opened SQLite database", zap.String("path", cfg.SQLitePath))
		return sqliterepo.NewStore(conn), func() { conn.Close() }, nil

	default:
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return repo.Store{}, nil, err
		}
		if cfg.AutoMigrate {
			if err := db.MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return repo.Store{}, nil, err
			}
		}
		logger.Info("Successfully connected to the Database!")
		return pgrepo.NewStore(pool), pool.Close, nil
	}
}
