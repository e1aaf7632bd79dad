package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boardapi/internal/config"
	"boardapi/internal/db"
	"boardapi/internal/middleware"
	"boardapi/internal/observability"
	"boardapi/internal/router"
	"boardapi/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	observability.SetupLogger(cfg.LogLevel)

	// Initialize Database
	gormDB, err := db.Init(cfg)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(redisOptions(cfg.RedisURL))
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rdb.Ping(ctx).Err(); err != nil {
		// throttling fails open while redis is down
		slog.Warn("Redis unreachable, write delay checks will pass", "error", err)
	}

	// 异步热门搜索词统计
	popular := services.NewPopularService(gormDB, 1024)
	popular.Start(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	router.RegisterRoutes(r, router.Deps{
		DB:       gormDB,
		Config:   cfg,
		Boards:   services.NewBoardService(gormDB, time.Minute),
		Site:     services.NewConfigService(gormDB, 30*time.Second),
		Popular:  popular,
		Throttle: services.NewThrottleService(rdb, cfg.UseThrottle),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("Board API starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// redisOptions accepts either a redis:// url or a bare host:port.
func redisOptions(raw string) *redis.Options {
	if opts, err := redis.ParseURL(raw); err == nil {
		return opts
	}
	return &redis.Options{Addr: raw}
}
