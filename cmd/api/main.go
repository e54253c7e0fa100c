package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"survey-rewards-backend/internal/common/config"
	"survey-rewards-backend/internal/common/logger"
	"survey-rewards-backend/internal/common/middleware"
	authhttp "survey-rewards-backend/internal/features/auth/delivery/http"
	authredis "survey-rewards-backend/internal/features/auth/repository/redis"
	authservice "survey-rewards-backend/internal/features/auth/service"
	surveyhttp "survey-rewards-backend/internal/features/survey/delivery/http"
	surveyredis "survey-rewards-backend/internal/features/survey/repository/redis"
	surveyservice "survey-rewards-backend/internal/features/survey/service"
	userhttp "survey-rewards-backend/internal/features/user/delivery/http"
	userredis "survey-rewards-backend/internal/features/user/repository/redis"
	userservice "survey-rewards-backend/internal/features/user/service"
	"survey-rewards-backend/internal/platform/casper"
	"survey-rewards-backend/internal/platform/deploys"
	redisplatform "survey-rewards-backend/internal/platform/redis"
	"survey-rewards-backend/internal/workers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init("survey-rewards-backend", cfg.Debug)

	rdb, err := redisplatform.Open(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	chain := casper.NewClient(cfg.Casper.RPCURL, cfg.Casper.Timeout)
	oracle := deploys.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Timeout)

	userRepo := userredis.NewUserRepository(rdb.Client)
	surveyRepo := surveyredis.NewSurveyRepository(rdb.Client)
	challengeRepo := authredis.NewChallengeRepository(rdb.Client)

	userService := userservice.NewUserService(userRepo, oracle, chain)
	surveyService := surveyservice.NewSurveyService(surveyRepo)
	authService := authservice.NewService(challengeRepo, userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ChallengeTTL)

	sweeper := workers.NewExpirationWorker(surveyRepo, cfg.Workers.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.Origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderPublicKey},
		AllowCredentials: true,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.RequireAuth(cfg.Auth.JWTSecret)
	active := middleware.RequireActive(userRepo)
	identity := middleware.LedgerIdentity(userRepo, true)
	identityOptional := middleware.LedgerIdentity(userRepo, false)
	activateLimit := middleware.RateLimit(cfg.RateLimit.ActivatePerMinute)

	v1 := router.Group("/api/v1")
	authhttp.NewAuthHandler(authService).RegisterRoutes(v1)
	userhttp.NewUserHandler(userService).RegisterRoutes(v1, auth, activateLimit)
	surveyhttp.NewSurveyHandler(surveyService).RegisterRoutes(v1, auth, active, identity, identityOptional)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
