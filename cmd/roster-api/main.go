package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/voluntix/roster-api/api/swagger"
	"github.com/voluntix/roster-api/internal/handler"
	"github.com/voluntix/roster-api/internal/middleware"
	"github.com/voluntix/roster-api/internal/repository"
	"github.com/voluntix/roster-api/internal/service"
	"github.com/voluntix/roster-api/pkg/cache"
	"github.com/voluntix/roster-api/pkg/config"
	"github.com/voluntix/roster-api/pkg/database"
	"github.com/voluntix/roster-api/pkg/events"
	"github.com/voluntix/roster-api/pkg/logger"
	corsmiddleware "github.com/voluntix/roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/voluntix/roster-api/pkg/middleware/requestid"
)

// @title Voluntix Roster API
// @version 1.0.0
// @description Multi-tenant volunteer roster scheduling core
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheSvc *service.CacheService
	var publisher events.Publisher = events.NewLogPublisher(logr)
	if cfg.Assignment.CacheEnabled || cfg.Events.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		if cfg.Assignment.CacheEnabled {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Assignment.SuggestionCacheTTL, logr, true)
		}
		if cfg.Events.Enabled {
			publisher = events.NewRedisPublisher(redisClient, cfg.Events.Channel, logr)
		}
	}

	availabilityRepo := repository.NewAvailabilityRepository(db)
	scaleRepo := repository.NewScaleRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	historyRepo := repository.NewServiceHistoryRepository(db)
	qualificationRepo := repository.NewQualificationRepository(db)

	availabilitySvc := service.NewAvailabilityService(
		availabilityRepo, qualificationRepo, qualificationRepo, scaleRepo,
		logr, cfg.Availability.DefaultMonthlyQuota)
	assignmentSvc := service.NewAssignmentService(
		scaleRepo, qualificationRepo, availabilitySvc, historyRepo, historyRepo,
		cacheSvc, publisher, metricsSvc, validate, logr,
		service.AssignmentConfig{
			HistoryWindow:      cfg.Assignment.HistoryWindow,
			SuggestionCacheTTL: cfg.Assignment.SuggestionCacheTTL,
		})
	substitutionSvc := service.NewSubstitutionService(
		substitutionRepo, scaleRepo, qualificationRepo, availabilitySvc,
		publisher, metricsSvc, validate, logr,
		service.SubstitutionConfig{RequestTTL: cfg.Substitution.RequestTTL})
	historySvc := service.NewHistoryService(historyRepo, validate, logr)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	scaleHandler := handler.NewScaleHandler(assignmentSvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		availability := api.Group("/availability")
		{
			availability.POST("/blocked-dates", availabilityHandler.BlockDate)
			availability.DELETE("/blocked-dates", availabilityHandler.UnblockDate)
			availability.GET("/blocked-days", availabilityHandler.MonthlyBlockedDays)
			availability.GET("/can-block", availabilityHandler.CanBlock)
			availability.GET("/check", availabilityHandler.Check)
			availability.DELETE("", availabilityHandler.Deactivate)
		}

		scales := api.Group("/scales")
		{
			scales.GET("/:id", scaleHandler.Get)
			scales.GET("/:id/suggestions", scaleHandler.Suggestions)
			scales.POST("/:id/assignments", scaleHandler.Confirm)
			scales.POST("/:id/publish", scaleHandler.Publish)
			scales.POST("/:id/complete", scaleHandler.Complete)
			scales.POST("/:id/cancel", scaleHandler.Cancel)
			scales.GET("/:id/swap-candidates", substitutionHandler.Candidates)
			scales.GET("/:id/substitutions", substitutionHandler.ListByScale)
		}

		substitutions := api.Group("/substitutions")
		{
			substitutions.POST("", substitutionHandler.Create)
			substitutions.GET("/:id", substitutionHandler.Get)
			substitutions.POST("/:id/respond", substitutionHandler.Respond)
			substitutions.POST("/:id/cancel", substitutionHandler.Cancel)
		}

		api.POST("/history", historyHandler.Record)
		api.GET("/volunteers/:id/stats", historyHandler.Stats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
