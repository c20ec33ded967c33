package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/padepokan-dev/silat-admin-api/api/swagger"
	"github.com/padepokan-dev/silat-admin-api/internal/authz"
	"github.com/padepokan-dev/silat-admin-api/internal/handler"
	internalmiddleware "github.com/padepokan-dev/silat-admin-api/internal/middleware"
	"github.com/padepokan-dev/silat-admin-api/internal/models"
	"github.com/padepokan-dev/silat-admin-api/internal/repository"
	"github.com/padepokan-dev/silat-admin-api/internal/service"
	"github.com/padepokan-dev/silat-admin-api/pkg/cache"
	"github.com/padepokan-dev/silat-admin-api/pkg/config"
	"github.com/padepokan-dev/silat-admin-api/pkg/database"
	"github.com/padepokan-dev/silat-admin-api/pkg/export"
	"github.com/padepokan-dev/silat-admin-api/pkg/logger"
	corsmiddleware "github.com/padepokan-dev/silat-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/padepokan-dev/silat-admin-api/pkg/middleware/requestid"
	"github.com/padepokan-dev/silat-admin-api/pkg/resilience"
	"github.com/padepokan-dev/silat-admin-api/pkg/storage"
)

// @title Silat Admin API
// @version 1.0.0
// @description Document workflow, notification and messaging API for pencak silat organization administration
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, notification caching disabled", "error", err)
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir, cfg.Uploads.MaxFileSizeBytes)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	runner := resilience.NewRunner(resilience.Config{
		Timeout:     cfg.Resilience.Timeout,
		MaxAttempts: cfg.Resilience.MaxAttempts,
		BaseDelay:   cfg.Resilience.BaseDelay,
	}, database.IsPermanent, metricsSvc, logr)

	letterRepo := repository.NewLetterRepository(db)
	reportRepo := repository.NewReportRepository(db)
	contactRepo := repository.NewContactRepository(db)
	chatRepo := repository.NewChatRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret}, logr)
	letterSvc := service.NewLetterService(letterRepo, runner, validate, logr, cfg.Org.Code, cfg.Workflow.EnableCAS)
	reportSvc := service.NewReportService(reportRepo, runner, export.NewPDFExporter(), validate, logr, cfg.Org.Code, cfg.Workflow.EnableCAS)
	notificationSvc := service.NewNotificationService(letterRepo, reportRepo, contactRepo, chatRepo, cacheRepo, metricsSvc, runner, logr, cfg.Notifications.CacheTTL)
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	chatSvc := service.NewChatService(chatRepo, userRepo, uploads, signer, runner, logr)
	contactSvc := service.NewContactService(contactRepo, runner, validate, logr)

	letterHandler := handler.NewLetterHandler(letterSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	chatHandler := handler.NewChatHandler(chatSvc)
	contactHandler := handler.NewContactHandler(contactSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/contact", contactHandler.Submit)
	r.GET("/files", chatHandler.Download)
	api.GET("/notifications", internalmiddleware.OptionalJWT(authSvc), notificationHandler.Feed)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))

	letters := secured.Group("/letters")
	letters.GET("", letterHandler.List)
	letters.POST("", letterHandler.Create)
	letters.GET("/next-number", letterHandler.NextNumber)
	letters.GET("/:id", letterHandler.Get)
	letters.PUT("/:id", letterHandler.Update)
	letters.PATCH("/:id/status", letterHandler.UpdateStatus)
	letters.DELETE("/:id", letterHandler.Delete)

	reports := secured.Group("/reports")
	reports.GET("", reportHandler.List)
	reports.POST("", reportHandler.Create)
	reports.GET("/:id", reportHandler.Get)
	reports.PUT("/:id", reportHandler.Update)
	reports.PATCH("/:id/status", reportHandler.UpdateStatus)
	reports.DELETE("/:id", reportHandler.Delete)
	reports.GET("/:id/pdf", reportHandler.ExportPDF)

	secured.POST("/notifications/read-all", internalmiddleware.RequireAction(authz.ActionContactManage), notificationHandler.MarkAllRead)

	chat := secured.Group("/chat")
	chat.POST("/messages", chatHandler.Send)
	chat.GET("/messages/:peerID", chatHandler.History)
	chat.GET("/conversations", chatHandler.Conversations)
	chat.GET("/attachments/:messageID", chatHandler.AttachmentLink)

	inbox := secured.Group("/contact")
	inbox.Use(internalmiddleware.RequireRoles(models.RoleMasterAdmin))
	inbox.GET("", contactHandler.List)
	inbox.GET("/:id", contactHandler.Get)
	inbox.DELETE("/:id", contactHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
