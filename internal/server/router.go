// Package server assembles the HTTP router.
package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/finalproject-api/api/swagger"
	"github.com/noah-isme/finalproject-api/internal/handler"
	"github.com/noah-isme/finalproject-api/internal/middleware"
	"github.com/noah-isme/finalproject-api/internal/models"
	"github.com/noah-isme/finalproject-api/internal/service"
	"github.com/noah-isme/finalproject-api/pkg/config"
	"github.com/noah-isme/finalproject-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/finalproject-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/finalproject-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Student     *handler.StudentHandler
	Advisor     *handler.AdvisorHandler
	AdvisorRole *handler.AdvisorRoleHandler
	Project     *handler.ProjectHandler
	Dashboard   *handler.DashboardHandler
	Metrics     *handler.MetricsHandler
}

// NewRouter builds the gin engine with the global middleware chain and every route.
func NewRouter(cfg *config.Config, logr *zap.Logger, auth middleware.TokenAuthenticator, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/docs/*any"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/token", h.Auth.Login)
	api.POST("/token/refresh", h.Auth.Refresh)
	api.POST("/register", h.Auth.Register)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))
	secured.GET("/me", h.Auth.Me)

	students := secured.Group("/students")
	students.GET("", h.Student.List)
	students.POST("", h.Student.Create)
	students.GET("/:id", h.Student.Get)
	students.PUT("/:id", h.Student.Update)
	students.PATCH("/:id", h.Student.Patch)
	students.DELETE("/:id", h.Student.Delete)

	advisors := secured.Group("/advisors")
	advisors.GET("", h.Advisor.List)
	advisors.POST("", h.Advisor.Create)
	advisors.GET("/:id", h.Advisor.Get)
	advisors.PUT("/:id", h.Advisor.Update)
	advisors.PATCH("/:id", h.Advisor.Patch)
	advisors.DELETE("/:id", h.Advisor.Delete)
	advisors.PUT("/:id/roles", h.Advisor.SetRoles)

	roles := secured.Group("/advisorroles")
	roles.GET("", h.AdvisorRole.List)
	roles.POST("", h.AdvisorRole.Create)
	roles.GET("/:id", h.AdvisorRole.Get)
	roles.PUT("/:id", h.AdvisorRole.Update)
	roles.DELETE("/:id", h.AdvisorRole.Delete)

	projects := secured.Group("/projects")
	projects.GET("", h.Project.List)
	projects.POST("", h.Project.Create)
	projects.GET("/:id", h.Project.Get)
	projects.PUT("/:id", h.Project.Update)
	projects.PATCH("/:id", h.Project.Patch)
	projects.DELETE("/:id", h.Project.Delete)

	dashboard := secured.Group("/dashboard")
	dashboard.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	dashboard.GET("", h.Dashboard.Summary)
	dashboard.GET("/export", h.Dashboard.Export)

	return r
}
