package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkwell-api/cache"
	"inkwell-api/config"
	"inkwell-api/database"
	"inkwell-api/jobs"
	"inkwell-api/logger"
	"inkwell-api/middleware"
	"inkwell-api/routes"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Get().Sync()

	// Initialize database
	db, err := database.Initialize(cfg.Server.DatabaseURL)
	if err != nil {
		logger.Get().Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Get().Fatal("failed to migrate database", zap.Error(err))
	}

	// Seed the default administrator when the user table is empty
	if err := database.SeedData(db); err != nil {
		logger.Get().Warn("failed to seed database", zap.Error(err))
	}

	cacheClient, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Get().Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	defer cacheClient.Close()

	// Set Gin mode based on environment
	if cfg.Server.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimit(cfg.Auth.RateLimitPerMinute, cfg.Auth.RateLimitBurst))

	// Setup routes
	routes.SetupRoutes(router, db, cacheClient, cfg)

	// Promote due scheduled posts in the background
	publishJob := jobs.NewScheduledPublishJob(db, time.Minute)
	publishJob.Start()
	defer publishJob.Stop()

	logger.Get().Info("starting server", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Get().Fatal("failed to start server", zap.Error(err))
	}
}
