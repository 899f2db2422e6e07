package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"postboard/config"
	"postboard/config/database"
	"postboard/internal/post/backup"
	"postboard/internal/post/repository"
	"postboard/internal/post/service"
	"postboard/pkg/logger"
	"postboard/router"
	"postboard/socket"
)

func main() {
	// 1. Load .env, optional postboard.yaml and environment settings.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Open the configured persistence adapter.
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Sugar.Fatalf("Could not open %s storage: %v", cfg.StorageDriver, err)
	}
	defer closeRepo()

	// 3. Load the stored collection once.
	svc := service.NewPostService(repo, cfg.Categories)
	if err := svc.Open(ctx); err != nil {
		logger.Sugar.Fatalf("Could not load posts: %v", err)
	}

	// 4. The hub fans committed changes out to feed viewers.
	hub := socket.NewHub(svc.Stats)
	go hub.Run(ctx)
	svc.OnChange(hub.Publish)

	// 5. Optional scheduled exports.
	var scheduler *backup.Scheduler
	if cfg.Backup.Schedule != "" {
		scheduler, err = backup.NewScheduler(cfg.Backup.Schedule, backup.NewJob(svc, cfg.Backup.Dir))
		if err != nil {
			logger.Sugar.Fatalf("Could not schedule backups: %v", err)
		}
		scheduler.Start()
		logger.Sugar.Infof("Backups scheduled (%s) into %s", cfg.Backup.Schedule, cfg.Backup.Dir)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.Setup(svc, hub, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Sugar.Infof("Postboard listening on :%s (storage: %s)", cfg.Port, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("shutdown error: %v", err)
	}
	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
}

// openRepository returns the adapter selected by STORAGE_DRIVER and a func that
// releases its connection.
func openRepository(ctx context.Context, cfg *config.Config) (repository.PostRepository, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverFile:
		return repository.NewFileRepository(cfg.StoragePath), func() {}, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := newSQLRepository(ctx, db, repository.DialectSQLite, cfg.StorageKey)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		repo, err := newSQLRepository(ctx, db, repository.DialectPostgres, cfg.StorageKey)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case config.DriverRedis:
		rdb, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(rdb, cfg.StorageKey), func() { rdb.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func newSQLRepository(ctx context.Context, db *sql.DB, dialect repository.Dialect, key string) (*repository.SQLRepository, error) {
	repo, err := repository.NewSQLRepository(db, dialect, key)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}
