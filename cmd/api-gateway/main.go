package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/opticlab/labres-api/api/swagger"
	"github.com/opticlab/labres-api/internal/client"
	"github.com/opticlab/labres-api/internal/handler"
	"github.com/opticlab/labres-api/internal/middleware"
	"github.com/opticlab/labres-api/internal/repository"
	"github.com/opticlab/labres-api/internal/service"
	"github.com/opticlab/labres-api/pkg/cache"
	"github.com/opticlab/labres-api/pkg/config"
	"github.com/opticlab/labres-api/pkg/database"
	"github.com/opticlab/labres-api/pkg/logger"
	corsmiddleware "github.com/opticlab/labres-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opticlab/labres-api/pkg/middleware/requestid"
	"github.com/opticlab/labres-api/pkg/storage"
)

// @title Lab Reservation API
// @version 0.1.0
// @description Booking calendar and topology mapping for optical lab equipment
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	loc, err := time.LoadLocation(cfg.Timeline.Location)
	if err != nil {
		logr.Sugar().Warnw("invalid timeline location, falling back to local", "location", cfg.Timeline.Location)
		loc = time.Local
	}

	grid, err := service.NewTimeGrid(service.DefaultSegments(), loc)
	if err != nil {
		logr.Sugar().Fatalw("invalid segment grid", "error", err)
	}
	maintenance := service.NewMaintenanceResolver(grid)

	validate := validator.New()

	deviceRepo := repository.NewDeviceRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	inventoryRepo := repository.NewInventoryRepository(deviceRepo, bookingRepo)
	sessionRepo := repository.NewSessionRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "labres-api",
	})

	timelineSvc := service.NewTimelineService(grid, maintenance, deviceRepo, bookingRepo, validate, logr, service.TimelineServiceConfig{
		HorizonDays: cfg.Timeline.HorizonDays,
	})
	topologySvc := service.NewTopologyService(inventoryRepo, maintenance, validate, logr, cfg.Resolver.MaxOptions)

	forecastClient := client.NewForecastClient(cfg.Forecast, logr)
	var forecasts service.ForecastSource
	if forecastClient != nil {
		forecasts = forecastClient
	}
	recommendationSvc := service.NewRecommendationService(topologySvc, bookingRepo, forecasts, validate, logr, metricsSvc, service.RecommendationWeights{
		Performance:  cfg.Resolver.PerformanceWeight,
		Availability: cfg.Resolver.AvailabilityWeight,
		Efficiency:   cfg.Resolver.EfficiencyWeight,
		Reliability:  cfg.Resolver.ReliabilityWeight,
	}, cfg.Resolver.HistoryDays)

	overrideSvc := service.NewOverrideService(sessionRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, validate, logr)
	exportSvc := service.NewExportService(bookingRepo, logr)

	artifactStore, err := storage.NewArtifactStore(cfg.Export.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewTokenSigner(cfg.JWT.Secret, cfg.Export.ResultTTL)
	exportJobSvc := service.NewExportJobService(exportSvc, artifactStore, signer, validate, logr, service.ExportJobConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Export.ResultTTL,
		Workers:   cfg.Export.Workers,
	})
	exportJobSvc.Start(context.Background())
	defer exportJobSvc.Stop()

	timelineHandler := handler.NewTimelineHandler(timelineSvc, cfg.Timeline.RefreshInterval)
	deviceHandler := handler.NewDeviceHandler(deviceRepo)
	bookingHandler := handler.NewBookingHandler(bookingRepo)
	topologyHandler := handler.NewTopologyHandler(topologySvc, recommendationSvc, overrideSvc, metricsSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	exportHandler := handler.NewExportHandler(exportSvc, exportJobSvc, cfg.Export.Enabled)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(authSvc))
	{
		api.GET("/timeline", timelineHandler.Get)
		api.GET("/devices", deviceHandler.List)
		api.GET("/devices/types", deviceHandler.Types)
		api.GET("/devices/:id", deviceHandler.Get)
		api.GET("/bookings", bookingHandler.List)

		api.POST("/topology/resolve", topologyHandler.Resolve)
		api.POST("/topology/suggest", topologyHandler.Suggest)
		api.POST("/topology/override", topologyHandler.Override)

		sessions := api.Group("/sessions", middleware.JWT(authSvc))
		{
			sessions.GET("/:id/topologies", sessionHandler.ListTopologies)
			sessions.POST("/:id/topologies", sessionHandler.SaveTopology)
			sessions.DELETE("/:id/topologies/:name", sessionHandler.DeleteTopology)
			sessions.GET("/:id/dismissed", sessionHandler.DismissedBookings)
			sessions.POST("/:id/dismissed", sessionHandler.DismissBooking)
			sessions.GET("/:id/overrides", sessionHandler.Overrides)
		}

		api.GET("/exports/bookings.csv", exportHandler.BookingsCSV)
		api.POST("/exports/mapping.pdf", exportHandler.MappingReportPDF)
		api.POST("/exports/jobs", exportHandler.CreateJob)
		api.GET("/exports/jobs/:id", exportHandler.JobStatus)
		api.GET("/exports/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
