package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/order-intake/config"
	"github.com/kendall-kelly/order-intake/logger"
	"github.com/kendall-kelly/order-intake/models"
	"github.com/kendall-kelly/order-intake/router"
	"github.com/kendall-kelly/order-intake/services"
	"github.com/kendall-kelly/order-intake/session"
	"go.uber.org/zap"
)

const redisKeyPrefix = "order_intake:session:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, restore, err := logger.Init(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer restore()
	defer func() { _ = zlog.Sync() }()

	zlog.Info("Starting order intake server...", zap.String("env", cfg.GoEnv))

	engine, cleanup, err := setup(context.Background(), cfg)
	if err != nil {
		zlog.Fatal("Failed to start", zap.Error(err))
	}
	defer cleanup()

	port := ":" + cfg.Port
	zlog.Info("Server is running", zap.String("addr", "http://localhost"+port))
	if err := engine.Run(port); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}

// setup connects the database, prepares the schema and builds the HTTP engine
func setup(ctx context.Context, cfg *config.Config) (*gin.Engine, func(), error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	db := config.GetDB()

	if err := models.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	zap.L().Info("Database migration completed successfully")

	if cfg.SeedOnBoot {
		if err := models.Seed(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		zap.L().Info("Catalog seeded")
	}

	services.InitOrderStore(db)

	sessions, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := router.New(cfg, sessions)
	if err != nil {
		closeSessions()
		return nil, nil, err
	}
	return engine, closeSessions, nil
}

// openSessionStore returns the configured session backend and a function releasing it
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		store, err := session.NewRedisStore(ctx, cfg.RedisAddr, redisKeyPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		zap.L().Info("Using redis session store", zap.String("addr", cfg.RedisAddr))
		return store, func() {
			if err := store.Close(); err != nil {
				zap.L().Warn("Failed to close redis", zap.Error(err))
			}
		}, nil
	default:
		zap.L().Info("Using in-memory session store")
		return session.NewMemoryStore(), func() {}, nil
	}
}
