package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/finalproject-api/internal/handler"
	"github.com/noah-isme/finalproject-api/internal/repository"
	"github.com/noah-isme/finalproject-api/internal/server"
	"github.com/noah-isme/finalproject-api/internal/service"
	"github.com/noah-isme/finalproject-api/pkg/cache"
	"github.com/noah-isme/finalproject-api/pkg/config"
	"github.com/noah-isme/finalproject-api/pkg/database"
	"github.com/noah-isme/finalproject-api/pkg/logger"
)

// @title Final Project API
// @version 1.0.0
// @description Academic records and final-project assignment service
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
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		// the dashboard falls back to live aggregation
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && cacheRepo.Enabled())

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	advisorRepo := repository.NewAdvisorRepository(db)
	roleRepo := repository.NewAdvisorRoleRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL})
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		Issuer:             cfg.JWT.Issuer,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
	})
	registrationSvc := service.NewRegistrationService(userRepo, validate, dashboardSvc, logr, service.RegistrationConfig{
		AllowPrivileged: cfg.Registration.AllowPrivileged,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, dashboardSvc, logr)
	advisorSvc := service.NewAdvisorService(advisorRepo, validate, dashboardSvc, logr)
	roleSvc := service.NewAdvisorRoleService(roleRepo, validate)
	projectSvc := service.NewProjectService(projectRepo, validate, dashboardSvc, metricsSvc, logr)

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	router := server.NewRouter(cfg, logr, authSvc, metricsSvc, server.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, registrationSvc),
		Student:     handler.NewStudentHandler(studentSvc),
		Advisor:     handler.NewAdvisorHandler(advisorSvc),
		AdvisorRole: handler.NewAdvisorRoleHandler(roleSvc),
		Project:     handler.NewProjectHandler(projectSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
