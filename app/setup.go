package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sahilchouksey/prof-ratings/api"
	"github.com/sahilchouksey/prof-ratings/config"
	"github.com/sahilchouksey/prof-ratings/database"
	"github.com/sahilchouksey/prof-ratings/router"
	"github.com/sahilchouksey/prof-ratings/services/cron"
	"github.com/sahilchouksey/prof-ratings/services/search"
	"github.com/sahilchouksey/prof-ratings/utils"
	"github.com/sahilchouksey/prof-ratings/utils/cache"
	"github.com/sahilchouksey/prof-ratings/utils/middleware"
	"go.uber.org/zap"
)

// OpenStore connects to the configured database and creates its tables.
// DB_DRIVER=pq selects the raw SQL store; postgres and sqlite go through GORM.
func OpenStore(getEnv *config.EnviornmentVariable, log *zap.Logger) (database.Storage, error) {
	var (
		store database.Storage
		err   error
	)
	if getEnv.DB_DRIVER == "pq" {
		store, err = database.Start(getEnv, log)
	} else {
		store, err = database.StartGORM(getEnv, log)
	}
	if err != nil {
		log.Error("check whether the database is running", zap.String("driver", getEnv.DB_DRIVER))
		return nil, err
	}

	if err := store.Init(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}
	return store, nil
}

// openSessions returns the Redis session store when REDIS_URL connects and
// an in-memory one otherwise. The closer is nil for the memory store.
func openSessions(getEnv *config.EnviornmentVariable, log *zap.Logger) (search.SessionStore, *search.MemorySessionStore, func() error) {
	if getEnv.REDIS_URL != "" {
		redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
		if err == nil {
			log.Info("search sessions stored in Redis")
			return search.NewRedisSessionStore(redisCache, getEnv.SEARCH_SESSION_TTL), nil, redisCache.Close
		}
		log.Warn("failed to connect to Redis, keeping search sessions in memory", zap.Error(err))
	}
	memory := search.NewMemorySessionStore(getEnv.SEARCH_SESSION_TTL)
	return memory, memory, nil
}

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	log, err := utils.NewLogger(getEnv.GO_ENV, getEnv.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, err := OpenStore(getEnv, log)
	if err != nil {
		return err
	}

	sessions, memorySessions, closeSessions := openSessions(getEnv, log)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		var pruner cron.SessionPruner
		if memorySessions != nil {
			pruner = memorySessions
		}
		cronManager = cron.NewCronManager(store, pruner, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Warn("failed to start cron jobs", zap.Error(err))
			cronManager = nil
		}
	}

	// Defer closing DB and session store, stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if closeSessions != nil {
			_ = closeSessions()
		}
		if err := store.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT), log)
	router.SetupRoutes(server.GetEngine(), router.Deps{
		Store:    store,
		Sessions: sessions,
		Logger:   log,
		Security: middleware.SecurityConfig{
			AllowedOrigins:    getEnv.ALLOWED_ORIGINS,
			RateLimitRequests: getEnv.RATE_LIMIT_REQUESTS,
			RateLimitWindow:   time.Minute,
			SearchRateLimit:   getEnv.SEARCH_RATE_LIMIT,
		},
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	// Get the PORT & Start the Server
	return server.Run()
}
