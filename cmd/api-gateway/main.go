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

	_ "github.com/noah-isme/consultancy-crm-api/api/swagger"
	"github.com/noah-isme/consultancy-crm-api/internal/handler"
	"github.com/noah-isme/consultancy-crm-api/internal/middleware"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	"github.com/noah-isme/consultancy-crm-api/internal/repository"
	"github.com/noah-isme/consultancy-crm-api/internal/scheduler"
	"github.com/noah-isme/consultancy-crm-api/internal/service"
	"github.com/noah-isme/consultancy-crm-api/pkg/cache"
	"github.com/noah-isme/consultancy-crm-api/pkg/config"
	"github.com/noah-isme/consultancy-crm-api/pkg/database"
	"github.com/noah-isme/consultancy-crm-api/pkg/jobs"
	"github.com/noah-isme/consultancy-crm-api/pkg/logger"
	"github.com/noah-isme/consultancy-crm-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/consultancy-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/consultancy-crm-api/pkg/middleware/requestid"
)

// @title Consultancy CRM API
// @version 1.0.0
// @description Follow-ups, approval routing and ownership transfer for education consultancies.
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.FollowUps.CacheTTL, logr, redisClient != nil)
	if redisClient != nil {
		defer cacheRepo.Close() //nolint:errcheck
	}

	userRepo := repository.NewUserRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	commentRepo := repository.NewFollowUpCommentRepository(db)
	enquiryRepo := repository.NewEnquiryRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	var notificationOpts []service.NotificationServiceOption
	var emailQueue *jobs.Queue
	var notificationSvc *service.NotificationService
	if cfg.Notifications.EmailEnabled() {
		emailQueue = jobs.NewQueue("notification-email", func(ctx context.Context, job jobs.Job) error {
			return notificationSvc.HandleEmailJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			Logger:     logr,
		})
		sender := mailer.NewSendGrid(cfg.Notifications.SendGridAPIKey, cfg.Notifications.FromEmail, cfg.Notifications.FromName)
		notificationOpts = append(notificationOpts, service.WithEmailDelivery(sender, emailQueue))
	}
	notificationSvc = service.NewNotificationService(notificationRepo, userRepo, logr, notificationOpts...)
	if emailQueue != nil {
		emailQueue.Start(ctx)
		defer emailQueue.Stop()
	}

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	followUpSvc := service.NewFollowUpService(followUpRepo, commentRepo, enquiryRepo, userRepo, userRepo, validate, logr,
		service.WithFollowUpCache(cacheSvc, cfg.FollowUps.CacheTTL),
		service.WithFollowUpNotifier(notificationSvc),
		service.WithFollowUpMetrics(metricsSvc),
	)
	entities := service.EntityRegistry{
		models.EntityEnquiry:      service.NewEnquiryMutator(enquiryRepo),
		models.EntityRegistration: service.NewRegistrationMutator(registrationRepo),
		models.EntityEnrollment:   service.NewEnrollmentMutator(enrollmentRepo),
	}
	approvalSvc := service.NewApprovalService(approvalRepo, db, entities, userRepo, validate, logr,
		service.WithApprovalNotifier(notificationSvc),
		service.WithApprovalCache(cacheSvc),
		service.WithApprovalMetrics(metricsSvc),
	)
	gatedSvc := service.NewGatedMutationService(entities, approvalSvc, userRepo, metricsSvc, logr,
		service.WithDeferral(cfg.Approvals.Enabled))
	transferSvc := service.NewTransferService(enquiryRepo, registrationRepo, userRepo, userRepo, validate, logr,
		service.WithTransferNotifier(notificationSvc),
		service.WithTransferMetrics(metricsSvc),
		service.WithTransferConcurrency(cfg.Transfers.Concurrency),
	)
	studentSvc := service.NewStudentService(enquiryRepo, registrationRepo, cacheSvc, cfg.FollowUps.CacheTTL, logr)

	if cfg.FollowUps.MissedSweep {
		sched, err := scheduler.New(followUpSvc, scheduler.Config{
			MissedSweepSpec:   cfg.FollowUps.MissedSweepSpec,
			MissedGracePeriod: cfg.FollowUps.MissedGracePeriod,
		}, logr)
		if err != nil {
			logr.Fatal("failed to configure scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	followUpHandler := handler.NewFollowUpHandler(followUpSvc, cacheSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc, cacheSvc)
	entityHandler := handler.NewEntityHandler(gatedSvc, cacheSvc)
	transferHandler := handler.NewTransferHandler(transferSvc, studentSvc, cacheSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc), middleware.AuditMeta())
	{
		api.GET("/follow-ups", followUpHandler.List)
		api.POST("/follow-ups", followUpHandler.Create)
		api.GET("/follow-ups/:id", followUpHandler.Get)
		api.PATCH("/follow-ups/:id/reschedule", followUpHandler.Reschedule)
		api.POST("/follow-ups/:id/complete", followUpHandler.Complete)
		api.POST("/follow-ups/:id/comments", followUpHandler.AddComment)
		api.DELETE("/follow-up-comments/:commentId", followUpHandler.DeleteComment)

		api.DELETE("/entities/:type/:id", entityHandler.Delete)
		api.PATCH("/entities/:type/:id", entityHandler.Update)

		if cfg.Approvals.Enabled {
			api.GET("/approval-requests", approvalHandler.List)
			api.GET("/approval-requests/pending-count", approvalHandler.PendingCount)
			api.GET("/approval-requests/:id", approvalHandler.Get)
			api.POST("/approval-requests", approvalHandler.Create)
			api.POST("/approval-requests/:id/approve", middleware.RequireAdmin(), approvalHandler.Approve)
			api.POST("/approval-requests/:id/reject", middleware.RequireAdmin(), approvalHandler.Reject)
		}

		api.GET("/students/mine", transferHandler.Mine)
		api.POST("/transfers", transferHandler.Transfer)
		api.GET("/notifications", notificationHandler.List)
		api.GET("/metrics/summary", middleware.RequireRoles(models.RoleDevAdmin), metricsHandler.Summary)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
