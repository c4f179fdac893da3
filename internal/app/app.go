// Package app wires configuration, database, storage and the cleanup service
// shared by the API server and the standalone cleanup command.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dropapp/internal/config"
	"dropapp/internal/database"
	"dropapp/internal/domain/cleanup"
	"dropapp/internal/domain/generation"
	"dropapp/internal/storage"
)

var connectDB = database.Connect

type App struct {
	Config  *config.RuntimeConfig
	Logger  logrus.FieldLogger
	DB      *gorm.DB
	Storage storage.Remover
	Cleanup *cleanup.Service
}

func New(cfg *config.RuntimeConfig, log logrus.FieldLogger) (*App, error) {
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	db, err := connectDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}

	remover, err := NewRemover(cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	svc, err := cleanup.NewService(generation.NewRepository(db), remover, CleanupConfig(cfg), log)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Storage: remover,
		Cleanup: svc,
	}, nil
}

// CleanupConfig maps runtime settings onto the cleanup policy.
func CleanupConfig(cfg *config.RuntimeConfig) cleanup.Config {
	return cleanup.Config{
		Retention: cfg.CleanupRetention,
		Plan:      cfg.CleanupPlan,
		BatchSize: cfg.CleanupBatchSize,
		URLMarker: cfg.StorageURLMarker,
	}
}

// NewRemover builds the storage backend selected by STORAGE_BACKEND.
func NewRemover(cfg *config.RuntimeConfig) (storage.Remover, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return storage.NewLocalStorage(cfg.LocalStorageDir)
	case config.StorageSupabase:
		return storage.NewSupabaseStorage(storage.SupabaseConfig{
			URL:        cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceRoleKey,
			Bucket:     cfg.StorageBucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// RunOnce executes a single cleanup pass bounded by CLEANUP_TIMEOUT.
func (a *App) RunOnce(ctx context.Context) (*cleanup.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Config.CleanupTimeout)
	defer cancel()
	return a.Cleanup.Run(ctx)
}

// Ping checks database connectivity.
func (a *App) Ping(ctx context.Context) error {
	return database.Ping(ctx, a.DB)
}

func (a *App) Close() error {
	return closeDB(a.DB)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
