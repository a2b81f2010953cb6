package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/planboard-api/api/swagger"
	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/handler"
	internalmiddleware "github.com/noah-isme/planboard-api/internal/middleware"
	"github.com/noah-isme/planboard-api/internal/repository"
	"github.com/noah-isme/planboard-api/internal/service"
	"github.com/noah-isme/planboard-api/pkg/cache"
	"github.com/noah-isme/planboard-api/pkg/config"
	"github.com/noah-isme/planboard-api/pkg/database"
	"github.com/noah-isme/planboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/planboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/planboard-api/pkg/middleware/requestid"
)

// @title Planboard API
// @version 1.0.0
// @description Shared planning board with optimistic sync of calendar, people, schedule and template collections.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metricsSvc := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{"database": db.PingContext}

	var cacheRepo *repository.CacheRepository
	if cfg.EntityCache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, entity cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
			readiness["redis"] = cacheRepo.Ping
		}
	}

	var cacheBackend service.CacheRepository
	if cacheRepo != nil {
		cacheBackend = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheBackend, metricsSvc, cfg.EntityCache.TTL, logr, cfg.EntityCache.Enabled)

	validate := validator.New()
	entityStore := service.NewCachedEntityStore(repository.NewEntityRepository(db), cacheSvc, logr)
	sessions := service.NewSessionStore(entityStore, board.NewID, metricsSvc, logr)
	boardSvc := service.NewBoardService(sessions, validate, metricsSvc, logr)
	syncSvc := service.NewSyncService(sessions, entityStore, metricsSvc, logr)
	authSvc := service.NewAuthService(repository.NewCalendarRepository(db), validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
	})

	var autoSync *service.AutoSyncService
	if cfg.AutoSync.Enabled {
		autoSync = service.NewAutoSyncService(syncSvc, cfg.AutoSync, logr)
		autoSync.Start(ctx)
		boardSvc.SetChangeListener(autoSync.Schedule)
	}

	go sessions.RunSweeper(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTTL)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	boardHandler := handler.NewBoardHandler(boardSvc)
	dragHandler := handler.NewDragHandler(boardSvc)
	syncHandler := handler.NewSyncHandler(syncSvc, boardSvc)
	exportHandler := handler.NewExportHandler(service.NewExportService(sessions, validate, logr, nil, nil))

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/snapshot", metricsHandler.Snapshot)
	api.POST("/calendars", authHandler.CreateCalendar)
	api.POST("/calendars/:id/sessions", authHandler.OpenSession)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.PATCH("/calendar", authHandler.RenameCalendar)

	boardGroup := secured.Group("/board")
	boardGroup.GET("", boardHandler.Get)
	boardGroup.GET("/status", boardHandler.Status)
	boardGroup.GET("/export", exportHandler.Month)
	boardGroup.POST("/items", boardHandler.CreateItem)
	boardGroup.PATCH("/items/:id", boardHandler.UpdateItem)
	boardGroup.DELETE("/items/:id", boardHandler.DeleteItem)
	boardGroup.POST("/items/:id/front", boardHandler.BringToFront)
	boardGroup.POST("/items/:id/people", boardHandler.AssignPerson)
	boardGroup.DELETE("/items/:id/people/:personId", boardHandler.UnassignPerson)
	boardGroup.POST("/drops", boardHandler.Drop)
	boardGroup.POST("/people", boardHandler.CreatePerson)
	boardGroup.DELETE("/people/:id", boardHandler.DeletePerson)
	boardGroup.POST("/templates", boardHandler.CreateTemplate)
	boardGroup.POST("/templates/:id/apply", boardHandler.ApplyTemplate)

	boardGroup.POST("/drags", dragHandler.Start)
	boardGroup.POST("/drags/:id/over", dragHandler.Over)
	boardGroup.POST("/drags/:id/end", dragHandler.End)
	boardGroup.DELETE("/drags/:id", dragHandler.Cancel)

	boardGroup.POST("/sync", syncHandler.SyncAll)
	boardGroup.POST("/sync/:collection", syncHandler.SyncCollection)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}

	// background passes must be done before the final flush takes over
	if autoSync != nil {
		autoSync.Stop()
	}
	flushed, err := syncSvc.Flush(shutdownCtx)
	if err != nil {
		logr.Error("some changes failed to save", zap.Int("collections", flushed), zap.Error(err))
		return
	}
	logr.Info("flushed pending changes", zap.Int("collections", flushed))
}
