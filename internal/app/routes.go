package app

import (
	"context"
	"net/http"
	"time"

	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/handlers"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/repo"
	"github.com/birlikkoshan/todo-api/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, log *zap.Logger, store repo.TodoRepo) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, store, log))
	r.GET("/version", versionHandler(cfg))
	r.GET("/metrics", metrics.Handler())
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(http.StatusFound, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	todoSvc := service.NewTodoService(store, log.Named("todos"))
	todoHandler := handlers.NewTodoHandler(todoSvc, log)
	registerTodoRoutes(r, todoHandler)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to " + cfg.App.Name,
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"openapi": "/swagger-doc.json",
			"health":  "/health",
			"metrics": "/metrics",
		})
	}
}

// healthHandler reports healthy only when the todo store answers a ping.
func healthHandler(cfg config.Config, store repo.TodoRepo, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "store unavailable",
				"env":     cfg.App.Env,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "API is running",
			"env":     cfg.App.Env,
		})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerTodoRoutes(r *gin.Engine, h *handlers.TodoHandler) {
	r.GET("/todos", h.List)
	r.POST("/todos", h.Create)
	r.GET("/todos/stats", h.Stats)
	r.POST("/todos/search", h.Search)
	r.POST("/todos/bulk", h.BulkCreate)
	r.PUT("/todos/bulk", h.BulkUpdate)
	r.GET("/todos/:id", h.GetByID)
	r.PUT("/todos/:id", h.Update)
	r.PATCH("/todos/:id/status", h.UpdateStatus)
	r.DELETE("/todos/:id", h.Delete)
}
