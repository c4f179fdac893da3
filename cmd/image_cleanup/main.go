package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"dropapp/internal/app"
	"dropapp/internal/config"
	"dropapp/internal/pkg/logger"
)

const defaultEnvFile = ".env.local"

func main() {
	log := logger.New(os.Stdout, "info", "text")

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = defaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		log.WithField("file", envFile).Warn("env file not loaded, using process environment")
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatalf("missing configuration: %v", err)
	}
	log = logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer a.Close()

	result, err := a.RunOnce(context.Background())
	if err != nil {
		a.Close()
		log.Fatalf("image cleanup failed: %v", err)
	}

	log.Infof("image cleanup completed: processed=%d cleaned=%d removed_objects=%d skipped_urls=%d",
		result.Processed, result.Cleaned, result.RemovedObjects, result.SkippedURLs)
	if result.StorageError != "" {
		log.Warnf("storage delete failed, objects may be orphaned: %s", result.StorageError)
	}
}
