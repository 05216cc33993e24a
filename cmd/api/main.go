package main

import (
	"context"
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

	_ "github.com/nss-vignan/nss-portal-api/api/swagger"
	"github.com/nss-vignan/nss-portal-api/internal/handler"
	"github.com/nss-vignan/nss-portal-api/internal/middleware"
	"github.com/nss-vignan/nss-portal-api/internal/models"
	"github.com/nss-vignan/nss-portal-api/internal/repository"
	"github.com/nss-vignan/nss-portal-api/internal/service"
	"github.com/nss-vignan/nss-portal-api/pkg/cache"
	"github.com/nss-vignan/nss-portal-api/pkg/config"
	"github.com/nss-vignan/nss-portal-api/pkg/database"
	"github.com/nss-vignan/nss-portal-api/pkg/export"
	"github.com/nss-vignan/nss-portal-api/pkg/jobs"
	"github.com/nss-vignan/nss-portal-api/pkg/logger"
	"github.com/nss-vignan/nss-portal-api/pkg/mailer"
	corsmiddleware "github.com/nss-vignan/nss-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nss-vignan/nss-portal-api/pkg/middleware/requestid"
	"github.com/nss-vignan/nss-portal-api/pkg/storage"
)

// @title NSS Portal API
// @version 1.0.0
// @description Volunteering hours and event portal for the National Service Scheme unit
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
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Storage.UploadsDir, cfg.Storage.PublicBase)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	var outbound mailer.Mailer
	if cfg.Mail.Provider == "sendgrid" && cfg.Mail.APIKey != "" {
		outbound = mailer.NewSendgridMailer(cfg.Mail.APIKey, cfg.Mail.FromName, cfg.Mail.FromEmail)
	} else {
		outbound = mailer.NewConsoleMailer(logr)
	}

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	mailSvc := service.NewMailService(outbound, jobs.QueueConfig{
		Workers:    cfg.MailQueue.Workers,
		BufferSize: cfg.MailQueue.BufferSize,
		MaxRetries: cfg.MailQueue.MaxRetries,
		RetryDelay: cfg.MailQueue.RetryDelay,
		Logger:     logr,
	}, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "nss-portal-api",
	})
	participationSvc := service.NewParticipationService(participationRepo, eventRepo, userRepo, mailSvc, validate, logr)
	eventSvc := service.NewEventService(eventRepo, userRepo, participationRepo, mailSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, participationRepo, validate, logr)
	certificateSvc := service.NewCertificateService(userRepo, participationRepo, export.NewCertificateRenderer(), service.CertificateConfig{
		Institution: cfg.Certificate.Institution,
		Unit:        cfg.Certificate.Unit,
		MinHours:    float64(cfg.Certificate.MinHours),
	}, validate, logr)
	reportSvc := service.NewReportService(eventRepo, participationRepo, userRepo, export.NewPDFExporter(), export.NewCSVExporter(), logr)
	dashboardSvc := service.NewDashboardService(userRepo, eventRepo, participationRepo, cacheRepo, cfg.Dashboard.CacheTTL, float64(cfg.Certificate.MinHours), logr)
	statusSvc := service.NewEventStatusService(eventRepo, cfg.StatusJob.Interval, logr)
	reminderSvc := service.NewReminderService(eventRepo, participationRepo, mailSvc, cfg.Reminders.Hour, logr)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc, store)
	participationHandler := handler.NewParticipationHandler(participationSvc, store, logr)
	userHandler := handler.NewUserHandler(userSvc)
	certificateHandler := handler.NewCertificateHandler(certificateSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static(cfg.Storage.PublicBase, cfg.Storage.UploadsDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, authSvc, authHandler, eventHandler, participationHandler, userHandler, certificateHandler, reportHandler, dashboardHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mailSvc.Start(ctx)
	if cfg.StatusJob.Enabled {
		go statusSvc.Start(ctx)
	}
	if cfg.Reminders.Enabled {
		go reminderSvc.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	mailSvc.Stop()
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authSvc *service.AuthService,
	auth *handler.AuthHandler,
	events *handler.EventHandler,
	participations *handler.ParticipationHandler,
	users *handler.UserHandler,
	certificates *handler.CertificateHandler,
	reports *handler.ReportHandler,
	dashboard *handler.DashboardHandler,
) {
	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/refresh", auth.Refresh)
	authGroup.POST("/logout", middleware.JWT(authSvc), auth.Logout)
	authGroup.POST("/change-password", middleware.JWT(authSvc), auth.ChangePassword)
	authGroup.GET("/me", middleware.JWT(authSvc), auth.Me)

	eventGroup := api.Group("/events")
	eventGroup.GET("", events.List)
	eventGroup.GET("/:id", events.Get)
	staffEvents := eventGroup.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
	staffEvents.POST("", events.Create)
	staffEvents.PUT("/:id", events.Update)
	staffEvents.PUT("/:id/image", events.UploadImage)
	staffEvents.DELETE("/:id", events.Delete)
	staffEvents.POST("/:id/announce", events.Announce)

	participationGroup := api.Group("/participations", middleware.JWT(authSvc))
	participationGroup.GET("", participations.List)
	participationGroup.GET("/my", participations.My)
	participationGroup.GET("/check/:eventId", participations.Check)
	participationGroup.POST("/register/:eventId", participations.Register)
	participationGroup.POST("/attend/:eventId", participations.MarkAttended)
	participationGroup.DELETE("/cancel/:eventId", participations.Cancel)
	participationGroup.PUT("/:id/report", participations.SubmitReport)
	participationGroup.PUT("/:id/review", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), participations.Review)

	studentGroup := api.Group("/students", middleware.JWT(authSvc))
	studentGroup.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), users.ListStudents)
	studentGroup.GET("/:id", middleware.RBAC(string(models.RoleAdmin), string(models.RoleFaculty), "SELF"), users.GetProfile)
	studentGroup.PUT("/:id/team-role", middleware.RequireRoles(models.RoleAdmin), users.UpdateTeamRole)

	api.PUT("/users/profile", middleware.JWT(authSvc), users.UpdateProfile)

	certificateGroup := api.Group("/certificates", middleware.JWT(authSvc))
	certificateGroup.GET("/participation/:id", certificates.Participation)
	certificateGroup.GET("/eligible", middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), certificates.ListEligible)
	certificateGroup.PUT("/mark-eligible/:studentId", middleware.RequireRoles(models.RoleAdmin), certificates.MarkEligible)
	certificateGroup.GET("/year-completion/:studentId", certificates.YearCompletion)
	certificateGroup.GET("/final/:studentId", middleware.RequireRoles(models.RoleAdmin), certificates.Final)

	reportGroup := api.Group("/reports", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
	reportGroup.GET("/event/:id", reports.EventReport)
	reportGroup.GET("/attendance/:id", reports.AttendanceSheet)
	reportGroup.GET("/annual-summary", reports.AnnualSummary)

	api.GET("/dashboard/stats", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty), dashboard.Stats)
}
