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

	_ "github.com/edusync/edusync-api/api/swagger"
	"github.com/edusync/edusync-api/internal/handler"
	"github.com/edusync/edusync-api/internal/middleware"
	"github.com/edusync/edusync-api/internal/models"
	"github.com/edusync/edusync-api/internal/repository"
	"github.com/edusync/edusync-api/internal/service"
	"github.com/edusync/edusync-api/pkg/cache"
	"github.com/edusync/edusync-api/pkg/config"
	"github.com/edusync/edusync-api/pkg/database"
	"github.com/edusync/edusync-api/pkg/logger"
	corsmiddleware "github.com/edusync/edusync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edusync/edusync-api/pkg/middleware/requestid"
	"github.com/edusync/edusync-api/pkg/openrouter"
)

// @title EduSync API
// @version 1.0.0
// @description School operations backend: attendance, schedules, leaves and the AI assistant
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and realtime disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Services.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "edusync-api",
	})
	userService := service.NewUserService(userRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, userRepo, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, validate, logr)
	sessionService := service.NewSessionService(sessionRepo, scheduleRepo, validate, logr)
	behaviorService := service.NewBehaviorService(behaviorRepo, validate, logr)
	leaveService := service.NewLeaveService(leaveRepo, flagRepo, userRepo, validate, logr, cfg.Leave.DefaultAnnualDays)
	announcementService := service.NewAnnouncementService(announcementRepo, validate, logr)

	commandService := service.NewCommandService(scheduleRepo, settingsRepo, cacheRepo, userRepo, logr, cfg.Assistant.PlanTTL)

	openrouterClient := openrouter.NewClient(cfg.Assistant.BaseURL,
		openrouter.WithTimeout(cfg.Assistant.RequestTimeout),
		openrouter.WithAttribution(cfg.Assistant.Referer, cfg.Assistant.Title))
	statsProvider := service.NewStatsProvider(sessionService, attendanceService, scheduleService)
	assistantService := service.NewAssistantService(openrouterClient, settingsRepo, userService, statsProvider, validate, logr)

	flagService := service.NewFlagService(flagRepo, cacheRepo, logr)
	dashboardService := service.NewDashboardService(userService, scheduleService, attendanceService, sessionService, leaveService, cacheService, cfg.Dashboard.CacheTTL, logr)
	exportService := service.NewExportService(scheduleService, attendanceService, logr)
	diagnosticsService := service.NewDiagnosticsService(db, cacheRepo, userRepo, settingsRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flagService.Load(ctx); err != nil {
		logr.Sugar().Warnw("failed to load maintenance flag", "error", err)
	}
	go flagService.Watch(ctx)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	behaviorHandler := handler.NewBehaviorHandler(behaviorService, userService)
	leaveHandler := handler.NewLeaveHandler(leaveService, userService)
	announcementHandler := handler.NewAnnouncementHandler(announcementService, userService)
	assistantHandler := handler.NewAssistantHandler(assistantService, commandService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	flagHandler := handler.NewFlagHandler(flagService)
	exportHandler := handler.NewExportHandler(exportService)
	diagnosticsHandler := handler.NewDiagnosticsHandler(diagnosticsService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	authed.Use(middleware.Maintenance(flagService))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/users", middleware.MinRole(models.RoleHead), userHandler.List)
	authed.GET("/users/teachers", middleware.MinRole(models.RoleHead), userHandler.Teachers)
	authed.GET("/users/:id", middleware.MinRoleOrSelf(models.RoleAdmin), userHandler.Get)
	authed.POST("/users", middleware.MinRole(models.RoleAdmin),
		middleware.Audit(userRepo, models.AuditActionUserCreate, "users"), userHandler.Create)
	authed.PUT("/users/:id", middleware.MinRole(models.RoleAdmin),
		middleware.Audit(userRepo, models.AuditActionUserUpdate, "users"), userHandler.Update)
	authed.DELETE("/users/:id", middleware.MinRole(models.RoleAdmin),
		middleware.Audit(userRepo, models.AuditActionUserDelete, "users"), userHandler.Delete)

	authed.GET("/schedules", scheduleHandler.List)
	authed.GET("/schedules/:id", scheduleHandler.Get)
	authed.POST("/schedules", middleware.MinRole(models.RoleAdmin), scheduleHandler.Create)
	authed.PUT("/schedules/day", middleware.MinRole(models.RoleAdmin), scheduleHandler.SaveDay)
	authed.POST("/schedules/reset", middleware.MinRole(models.RoleAdmin), scheduleHandler.WeeklyReset)
	authed.PUT("/schedules/:id", middleware.MinRole(models.RoleAdmin), scheduleHandler.Update)
	authed.DELETE("/schedules/:id", middleware.MinRole(models.RoleAdmin), scheduleHandler.Delete)

	authed.POST("/attendance/check-in", attendanceHandler.CheckIn)
	authed.GET("/attendance/today", attendanceHandler.Today)
	authed.GET("/attendance/history", attendanceHandler.History)
	authed.GET("/attendance/board", middleware.MinRole(models.RoleHead), attendanceHandler.Board)
	authed.GET("/attendance/stats", middleware.MinRole(models.RoleHead), attendanceHandler.Stats)

	authed.POST("/sessions", sessionHandler.Start)
	authed.POST("/sessions/:id/end", sessionHandler.End)
	authed.GET("/sessions/active", sessionHandler.Active)
	authed.GET("/sessions/active/all", middleware.MinRole(models.RoleHead), sessionHandler.ListActive)
	authed.GET("/sessions/history", sessionHandler.History)

	authed.POST("/behavior-reports", behaviorHandler.Create)
	authed.GET("/behavior-reports", behaviorHandler.List)

	authed.POST("/leaves", leaveHandler.Submit)
	authed.GET("/leaves", leaveHandler.List)
	authed.GET("/leaves/balance", leaveHandler.Balance)
	authed.GET("/leaves/balances", middleware.MinRole(models.RoleAdmin), leaveHandler.Balances)
	authed.POST("/leaves/:id/review", middleware.MinRole(models.RoleAdmin),
		middleware.Audit(userRepo, models.AuditActionLeaveReview, "leave_applications"), leaveHandler.Review)
	authed.POST("/leaves/:id/cancel", leaveHandler.Cancel)

	authed.GET("/announcements", announcementHandler.List)
	authed.POST("/announcements", middleware.MinRole(models.RoleHead), announcementHandler.Create)
	authed.PUT("/announcements/:id", announcementHandler.Update)
	authed.DELETE("/announcements/:id", announcementHandler.Delete)

	authed.GET("/dashboard", dashboardHandler.Summary)

	if cfg.Assistant.Enabled {
		authed.POST("/assistant/chat", assistantHandler.Chat)
		authed.POST("/assistant/plans", assistantHandler.PlanCommands)
		authed.GET("/assistant/plans/:id", assistantHandler.GetPlan)
		authed.PUT("/assistant/plans/:id", assistantHandler.EditPlan)
		authed.DELETE("/assistant/plans/:id", assistantHandler.AbandonPlan)
		authed.POST("/assistant/plans/:id/apply",
			middleware.Audit(userRepo, models.AuditActionCommandApply, "schedules"), assistantHandler.ApplyPlan)
		authed.GET("/assistant/settings", middleware.MinRole(models.RoleCreator), assistantHandler.GetSettings)
		authed.PUT("/assistant/settings", middleware.MinRole(models.RoleCreator), assistantHandler.UpdateSettings)
		authed.GET("/assistant/errors", middleware.MinRole(models.RoleCreator), assistantHandler.CommandErrors)
	}

	authed.GET("/flags", middleware.MinRole(models.RoleAdmin), flagHandler.List)
	authed.GET("/flags/:name", middleware.MinRole(models.RoleAdmin), flagHandler.Get)
	authed.PUT("/flags/:name", middleware.MinRole(models.RoleCreator), flagHandler.Set)

	if cfg.Exports.Enabled {
		authed.GET("/exports/schedule", middleware.MinRole(models.RoleHead), exportHandler.WeeklySchedule)
		authed.GET("/exports/attendance", middleware.MinRole(models.RoleHead), exportHandler.AttendanceSummary)
	}

	if cfg.Diagnostics.Enabled {
		authed.GET("/diagnostics", middleware.MinRole(models.RoleCreator), diagnosticsHandler.Run)
	}

	authed.GET("/metrics/snapshot", middleware.MinRole(models.RoleAdmin), metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
