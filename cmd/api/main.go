package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dropapp/internal/app"
	"dropapp/internal/config"
	"dropapp/internal/domain/cleanup"
	"dropapp/internal/domain/health"
	"dropapp/internal/middleware"
	"dropapp/internal/pkg/logger"
	"dropapp/internal/pkg/response"
)

func main() {
	// .env is optional for the server; deployments inject env directly.
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err == nil {
		err = cfg.ValidateHTTP()
	}
	if err != nil {
		logger.New(os.Stderr, "info", "text").Fatalf("config: %v", err)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorLogger(log), middleware.RequestLogger(log))
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Not Found")
	})

	health.RegisterRoutes(r, health.NewHandler(a.Ping))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		cleanupHandler := cleanup.NewHandler(a.Cleanup, cfg.CleanupTimeout)
		cleanup.RegisterRoutes(api, cleanupHandler, middleware.CronSecretAuth(cfg.CronSecret, cfg.IsDevelopment(), log))
	}

	var scheduler *cleanup.Scheduler
	if cfg.CleanupSchedule != "" {
		scheduler, err = cleanup.NewScheduler(a.Cleanup, cfg.CleanupSchedule, cfg.CleanupTimeout, log)
		if err != nil {
			log.Fatal(err)
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CleanupTimeout+5*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(ctx)
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	log.Info("API stopped")
}
