package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/bmsuite/bms-session-server/internal/config"
	"github.com/bmsuite/bms-session-server/internal/handlers"
	"github.com/bmsuite/bms-session-server/internal/logger"
	"github.com/bmsuite/bms-session-server/internal/monitor"
	"github.com/bmsuite/bms-session-server/internal/repository"
	"github.com/bmsuite/bms-session-server/internal/repository/memory"
	redis_repo "github.com/bmsuite/bms-session-server/internal/repository/redis"
	"github.com/bmsuite/bms-session-server/internal/router"
	"github.com/bmsuite/bms-session-server/internal/server"
	"github.com/bmsuite/bms-session-server/internal/service"
	"github.com/bmsuite/bms-session-server/internal/session"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)

	var kv repository.KVStore
	switch strings.ToLower(cfg.SessionBackend) {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Str("address", cfg.Redis.Address).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		kv = redis_repo.NewRedisKVStore(redisClient)
		log.Info().Str("address", cfg.Redis.Address).Msg("Using Redis session backend")
	default:
		memStore := memory.NewMemoryKVStore(time.Minute)
		defer memStore.StopCleanup()
		kv = memStore
		log.Info().Msg("Using in-memory session backend")
	}

	sessionStore := session.NewStore(kv, session.WithTimeout(cfg.Session.Timeout))

	var provider service.IdentityProvider
	var msProvider *service.MSOAuthProvider
	switch strings.ToLower(cfg.AuthProvider) {
	case "microsoft":
		msProvider = service.NewMSOAuthProvider(cfg)
		provider = msProvider
		log.Info().Msg("Using Microsoft identity provider")
	default:
		provider = service.NewDemoProvider(time.Hour)
		log.Info().Msg("Using demo identity provider")
	}

	authService := service.NewAuthService(sessionStore, provider)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.Session.Timeout)

	activityMonitor := monitor.New(sessionStore, authService, monitor.Options{
		Enabled:         true,
		ExtendThreshold: cfg.Session.ExtendThreshold,
		SweepInterval:   cfg.Session.SweepInterval,
		ActivityEvents:  cfg.Session.ActivityEvents,
	})
	activityMonitor.Start()
	defer activityMonitor.Stop()

	app := server.New()
	jwtMiddleware := router.NewJWTMiddleware(cfg.JWTSecret)

	router.SetupAuthRoutes(app, handlers.NewAuthHandler(authService, tokenService), jwtMiddleware)
	router.SetupSessionRoutes(app, handlers.NewSessionHandler(authService, activityMonitor), jwtMiddleware)
	if msProvider != nil {
		router.SetupOAuthRoutes(app, handlers.NewOAuthHandler(msProvider, authService, tokenService, cfg))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := app.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully.")
}
