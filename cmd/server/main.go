package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/enrolldesk/enroll-api/api/swagger"
	"github.com/enrolldesk/enroll-api/internal/handler"
	"github.com/enrolldesk/enroll-api/internal/middleware"
	"github.com/enrolldesk/enroll-api/internal/repository"
	"github.com/enrolldesk/enroll-api/internal/service"
	"github.com/enrolldesk/enroll-api/pkg/cache"
	"github.com/enrolldesk/enroll-api/pkg/config"
	"github.com/enrolldesk/enroll-api/pkg/database"
	"github.com/enrolldesk/enroll-api/pkg/logger"
	corsmiddleware "github.com/enrolldesk/enroll-api/pkg/middleware/cors"
	reqidmiddleware "github.com/enrolldesk/enroll-api/pkg/middleware/requestid"
)

// @title Enroll Admin API
// @version 1.0.0
// @description Admin-facing student enrollment service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var listingCache *repository.CacheRepository
	if cfg.Listing.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			listingCache = repository.NewCacheRepository(redisClient)
		}
	}

	enrollmentRepo := repository.NewEnrollmentRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	authSvc := service.NewAuthService(operatorRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	var enrollmentSvc *service.EnrollmentService
	if listingCache != nil {
		enrollmentSvc = service.NewEnrollmentService(enrollmentRepo, listingCache, cfg.Listing.CacheTTL, nil, logr, metricsSvc)
	} else {
		enrollmentSvc = service.NewEnrollmentService(enrollmentRepo, nil, 0, nil, logr, metricsSvc)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, cfg.Exports.Title)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/enrollments", enrollmentHandler.Create)
	protected.PUT("/enrollments/:id", enrollmentHandler.Update)
	protected.GET("/enrollments", enrollmentHandler.List)
	if cfg.Exports.Enabled {
		protected.GET("/enrollments/export", enrollmentHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
