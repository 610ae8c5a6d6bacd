package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/internal/api/handlers"
	"github.com/mrashed98/blueprint-cms/internal/api/middleware"
	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/render"
	"github.com/mrashed98/blueprint-cms/internal/core/template"
)

type Router struct {
	engine           *gin.Engine
	logger           *zap.Logger
	registry         *prometheus.Registry
	authMiddleware   *middleware.AuthMiddleware
	authHandler      *handlers.AuthHandler
	blueprintHandler *handlers.BlueprintHandler
	contentHandler   *handlers.ContentHandler
}

func NewRouter(
	authService *auth.Service,
	blueprintService *blueprint.Service,
	contentService *content.Service,
	templates *template.Catalogue,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Router{
		logger:           logger,
		registry:         registry,
		authMiddleware:   middleware.NewAuthMiddleware(authService),
		authHandler:      handlers.NewAuthHandler(authService),
		blueprintHandler: handlers.NewBlueprintHandler(blueprintService),
		contentHandler:   handlers.NewContentHandler(contentService, templates, render.New(render.WithRawHTML()), render.New()),
	}
}

// Registry exposes the collectors served on /metrics.
func (r *Router) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Router) Setup(mode string) *gin.Engine {
	gin.SetMode(mode)
	r.engine = gin.New()
	r.engine.Use(middleware.Recovery(r.logger))
	r.engine.Use(middleware.AuditMiddleware())
	r.engine.Use(middleware.RequestLogger(r.logger))
	r.engine.Use(middleware.NewMetrics(r.registry).Handler())
	r.engine.Use(middleware.ErrorHandler(r.logger))

	r.setupRoutes()
	return r.engine
}

func (r *Router) setupRoutes() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api.POST("/auth/login", r.authHandler.Login)
	api.GET("/public/content/:slug", r.contentHandler.PublicBySlug)

	protected := api.Group("")
	protected.Use(r.authMiddleware.Authenticate())
	{
		protected.GET("/auth/me", r.authHandler.Me)
		protected.POST("/auth/register", r.authMiddleware.RequirePermission(auth.PermUserManage), r.authHandler.Register)

		protected.GET("/field-types", r.blueprintHandler.FieldTypes)

		blueprints := protected.Group("/blueprints")
		{
			blueprints.GET("", r.authMiddleware.RequirePermission(auth.PermBlueprintRead), r.blueprintHandler.List)
			blueprints.POST("", r.authMiddleware.RequirePermission(auth.PermBlueprintWrite), r.blueprintHandler.Create)
			blueprints.GET("/:id", r.authMiddleware.RequirePermission(auth.PermBlueprintRead), r.blueprintHandler.Get)
			blueprints.PUT("/:id", r.authMiddleware.RequirePermission(auth.PermBlueprintWrite), r.blueprintHandler.Update)
			blueprints.DELETE("/:id", r.authMiddleware.RequirePermission(auth.PermBlueprintDelete), r.blueprintHandler.Delete)
		}

		protected.GET("/templates", r.authMiddleware.RequirePermission(auth.PermContentRead), r.contentHandler.Templates)

		contents := protected.Group("/content")
		{
			contents.GET("", r.authMiddleware.RequirePermission(auth.PermContentRead), r.contentHandler.List)
			contents.POST("", r.authMiddleware.RequirePermission(auth.PermContentWrite), r.contentHandler.Create)
			contents.GET("/:id", r.authMiddleware.RequirePermission(auth.PermContentRead), r.contentHandler.Get)
			contents.PUT("/:id", r.authMiddleware.RequirePermission(auth.PermContentWrite), r.contentHandler.Update)
			contents.DELETE("/:id", r.authMiddleware.RequirePermission(auth.PermContentDelete), r.contentHandler.Delete)
			contents.GET("/:id/render", r.authMiddleware.RequirePermission(auth.PermContentRead), r.contentHandler.Render)

			contents.POST("/:id/sections", r.authMiddleware.RequirePermission(auth.PermContentWrite), r.contentHandler.AddSection)
			contents.POST("/:id/sections/:sectionId/duplicate", r.authMiddleware.RequirePermission(auth.PermContentWrite), r.contentHandler.DuplicateSection)
		}
	}
}
