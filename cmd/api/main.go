// @title           Todo API
// @version         1.0
// @description     Todo CRUD with filtering, pagination, search, statistics and bulk operations.
// @host            localhost:8080
// @BasePath        /
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/birlikkoshan/todo-api/internal/app"
	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/logging"

	_ "github.com/birlikkoshan/todo-api/docs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("config loaded, opening store", zap.String("driver", cfg.Store.Driver), zap.String("env", cfg.App.Env))

	application, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("app init", zap.Error(err))
	}
	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.HTTP.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown", zap.Error(err))
	}

	if err := application.Close(ctx); err != nil {
		logger.Error("closing store", zap.Error(err))
	}
}
