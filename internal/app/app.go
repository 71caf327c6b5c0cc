package app

import (
	"context"
	"fmt"
	"time"

	"github.com/birlikkoshan/todo-api/internal/config"
	"github.com/birlikkoshan/todo-api/internal/handlers"
	"github.com/birlikkoshan/todo-api/internal/logging"
	"github.com/birlikkoshan/todo-api/internal/metrics"
	"github.com/birlikkoshan/todo-api/internal/repo"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	cfg    config.Config
	log    *zap.Logger
	store  repo.TodoRepo
	router *gin.Engine
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("todo store ready", zap.String("driver", cfg.Store.Driver))

	a := &App{cfg: cfg, log: log, store: store}
	a.router = newRouter(cfg, log, store)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// NewStore opens the store selected by STORE_DRIVER and brings its schema up to date.
func NewStore(ctx context.Context, cfg config.Config) (repo.TodoRepo, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := runMigrations(ctx, cfg.PG.DSN); err != nil {
			return nil, err
		}
		db, err := newPostgres(ctx, cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		return repo.NewPGTodoRepo(db), nil
	case config.DriverSQLite:
		return repo.NewSQLiteTodoRepo(ctx, cfg.SQLite.Path)
	case config.DriverRedis:
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return repo.NewRedisTodoRepo(rdb, cfg.Redis.KeyPrefix), nil
	case config.DriverMemory:
		return repo.NewMemTodoRepo(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	return repo.Migrate(ctx, db, goose.DialectPostgres, "postgres")
}

func newRouter(cfg config.Config, log *zap.Logger, store repo.TodoRepo) *gin.Engine {
	handlers.RegisterValidation()

	r := gin.New()
	r.Use(logging.RequestLogger(log), metrics.Middleware(), logging.Recovery(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.HTTP.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, log, store)
	return r
}
