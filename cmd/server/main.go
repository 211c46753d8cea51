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

	"dashboard_api/internal/cache"
	"dashboard_api/internal/config"
	"dashboard_api/internal/logging"
	"dashboard_api/internal/repository"
	"dashboard_api/internal/repository/memory"
	"dashboard_api/internal/server"
	"dashboard_api/internal/service"
	"dashboard_api/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.IsProduction(), cfg.LogLevel))
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// --- Storage ---
	var (
		userRepo repository.UserRepository
		postRepo repository.PostRepository
		logRepo  repository.LogRepository
		store    server.Pinger
	)
	switch cfg.StorageBackend {
	case config.StorageMemory:
		slog.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		userRepo, postRepo, logRepo, store = mem.Users(), mem.Posts(), mem.Logs(), mem
	default:
		dbPool, err := config.ConnectDB(ctx, cfg.DSN())
		if err != nil {
			slog.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := config.AutoMigrate(ctx, dbPool); err != nil {
			slog.Error("Failed to auto-migrate database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		userRepo = repository.NewUserRepository(dbPool)
		postRepo = repository.NewPostRepository(dbPool)
		logRepo = repository.NewLogRepository(dbPool)
		store = dbPool
	}

	// --- Redis (optional) ---
	rdb, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}
	redisCache := cache.New(rdb)
	userCache := cache.NewUserCache(redisCache, cfg.UserCacheTTL)

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(cfg.JWTSecret, cfg.JWTExpHours)

	// --- Initialize Services ---
	logService := service.NewLogService(logRepo)
	authService := service.NewAuthService(userRepo, jwtUtil, userCache, logService, cfg.InitialAdminEmail)
	postService := service.NewPostService(postRepo, logService)
	userService := service.NewUserService(userRepo, userCache, logService)

	// --- Setup Gin Router ---
	router, err := server.NewRouter(server.Deps{
		Auth:               authService,
		Posts:              postService,
		Users:              userService,
		Logs:               logService,
		Store:              store,
		Cache:              redisCache,
		AllowedOrigins:     cfg.Origins(),
		MaxBodyBytes:       cfg.MaxBodyBytes,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateWindow:     cfg.AuthRateWindow,
		AuthRateFailClosed: cfg.AuthRateFailClosed,
	})
	if err != nil {
		slog.Error("Failed to build router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", slog.String("port", cfg.ServerPort), slog.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("Server exiting")
}
