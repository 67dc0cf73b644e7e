package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"minitasks/internal/auth"
	"minitasks/internal/cache"
	"minitasks/internal/config"
	"minitasks/internal/db"
	"minitasks/internal/handler"
	"minitasks/internal/logger"
	"minitasks/internal/repository"
	"minitasks/internal/router"
	"minitasks/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Mini Tasks API
// @version 1.0
// @description Owner-scoped task tracking with email/password registration and JWT bearer sessions.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	if cfg.InsecureSecret() {
		log.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	gormDB, err := db.New(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database init", "error", err)
	}

	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Drop(gormDB); err != nil {
			log.Warn("drop tables failed (may not exist)", "error", err)
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("migrate", "error", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if cacheClient.Enabled() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, rate limiting will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
	} else {
		log.Info("REDIS_ADDR not set, rate limiting disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Token())
	authService := service.NewAuthService(userRepo, jwtService, auth.NewBcryptHasher(auth.DefaultBcryptCost), log)
	taskService := service.NewTaskService(taskRepo)

	e := echo.New()
	router.Register(e, cfg, router.Deps{
		AuthService: authService,
		AuthHandler: handler.NewAuthHandler(authService),
		TaskHandler: handler.NewTaskHandler(taskService),
		Limiter:     cacheClient,
		Log:         log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", "addr", addr, "swagger", "http://localhost:"+cfg.ServerPort+"/swagger/index.html")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown", "error", err)
	}
}
