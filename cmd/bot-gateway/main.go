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
	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/bot"
	"github.com/capyvagas/capyvagas-api/internal/gateway"
	"github.com/capyvagas/capyvagas-api/internal/handler"
	"github.com/capyvagas/capyvagas-api/internal/jobs"
	"github.com/capyvagas/capyvagas-api/internal/middleware"
	"github.com/capyvagas/capyvagas-api/internal/portal"
	"github.com/capyvagas/capyvagas-api/internal/repository"
	"github.com/capyvagas/capyvagas-api/internal/service"
	"github.com/capyvagas/capyvagas-api/pkg/cache"
	"github.com/capyvagas/capyvagas-api/pkg/config"
	"github.com/capyvagas/capyvagas-api/pkg/crypto"
	"github.com/capyvagas/capyvagas-api/pkg/database"
	"github.com/capyvagas/capyvagas-api/pkg/logger"
	corsmiddleware "github.com/capyvagas/capyvagas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/capyvagas/capyvagas-api/pkg/middleware/requestid"
	"github.com/capyvagas/capyvagas-api/pkg/worker"
)

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The bot works without Redis, it just renders menus from Postgres.
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	cipher, err := crypto.NewCredentialCipher(cfg.Encryption.Key)
	if err != nil {
		logr.Sugar().Fatalw("failed to init credential cipher", "error", err)
	}

	// Repositories.
	sessionRepo := repository.NewSessionRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)
	jobSearchRepo := repository.NewJobSearchLogRepository(db)
	configurationRepo := repository.NewConfigurationRepository(db)
	healthRepo := repository.NewHealthRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// External clients.
	wahaClient := gateway.NewWahaClient(cfg.Waha, logr)
	portalClient := portal.NewClient(cfg.Portal, logr)
	jobsClient := jobs.NewClient(cfg.Jobs, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	courseSvc := service.NewCourseService(courseRepo, cacheRepo, cfg.Redis.CourseCacheTTL, nil, logr)
	auditSvc := service.NewAuditService(interactionRepo, jobSearchRepo, cfg.Waha.SessionName, worker.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	}, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(service.AuthConfig{
		Username:     cfg.Dashboard.Username,
		PasswordHash: cfg.Dashboard.PasswordHash,
		TokenSecret:  cfg.JWT.Secret,
		TokenExpiry:  cfg.JWT.Expiration,
	}, nil, logr)
	interactionSvc := service.NewInteractionService(interactionRepo, jobSearchRepo, logr)
	exportSvc := service.NewExportService(interactionRepo, jobSearchRepo, nil, nil, logr)
	configurationSvc := service.NewConfigurationService(configurationRepo, nil, logr)
	healthSvc := service.NewHealthService(healthRepo, wahaClient, service.HealthConfig{
		CheckInterval: cfg.Health.CheckInterval,
		CheckTimeout:  cfg.Health.CheckTimeout,
	}, logr)
	if cfg.Health.Enabled {
		healthSvc.Start(ctx)
		defer healthSvc.Stop()
	}

	// Conversation engine.
	catalog := bot.NewCatalog(configurationRepo, logr)
	snd := bot.NewSender(wahaClient, auditSvc, metricsSvc, logr)
	menuHandler := bot.NewMenuHandler(catalog, snd, logr)
	authHandler := bot.NewAuthenticationHandler(sessionRepo, portalClient, cipher, catalog, snd, metricsSvc, logr)
	searchHandler := bot.NewJobSearchHandler(sessionRepo, courseSvc, jobsClient, snd, auditSvc, metricsSvc, cfg.Jobs.ResultLimit, logr)
	router := bot.NewRouter(sessionRepo, menuHandler, authHandler, searchHandler, auditSvc, metricsSvc, logr)

	// HTTP surface.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	statusHdl := handler.NewStatusHandler(db, healthSvc)
	r.GET("/health", statusHdl.Health)
	r.GET("/ready", statusHdl.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	webhookHdl := handler.NewWebhookHandler(router, logr)
	r.POST("/webhook", webhookHdl.Receive)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", handler.NewAuthHandler(authSvc).Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		courseHdl := handler.NewCourseHandler(courseSvc)
		protected.GET("/courses", courseHdl.List)
		protected.POST("/courses", courseHdl.Create)
		protected.DELETE("/courses", courseHdl.Delete)
		protected.GET("/courses/:id", courseHdl.Get)
		protected.PUT("/courses/:id", courseHdl.Update)
		protected.PATCH("/courses/:id/active", courseHdl.ToggleActive)
		protected.GET("/courses/:id/terms", courseHdl.ListTerms)
		protected.POST("/terms", courseHdl.CreateTerm)
		protected.PUT("/terms/:termId", courseHdl.UpdateTerm)
		protected.DELETE("/terms/:termId", courseHdl.DeleteTerm)

		interactionHdl := handler.NewInteractionHandler(interactionSvc, exportSvc)
		protected.GET("/interactions", interactionHdl.ListInteractions)
		protected.GET("/interactions/export", interactionHdl.ExportInteractions)
		protected.GET("/searches", interactionHdl.ListSearches)
		protected.GET("/searches/export", interactionHdl.ExportSearches)

		configurationHdl := handler.NewConfigurationHandler(configurationSvc)
		protected.GET("/configuration", configurationHdl.Get)
		protected.PUT("/configuration", configurationHdl.Update)
		protected.GET("/messages/:key", configurationHdl.GetMessage)
		protected.PUT("/messages/:key", configurationHdl.SetMessage)

		protected.GET("/status", statusHdl.BotStatus)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
