// Package app wires repositories, services and the HTTP router from
// configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mrashed98/blueprint-cms/config"
	"github.com/mrashed98/blueprint-cms/internal/api"
	"github.com/mrashed98/blueprint-cms/internal/core/auth"
	"github.com/mrashed98/blueprint-cms/internal/core/blueprint"
	"github.com/mrashed98/blueprint-cms/internal/core/content"
	"github.com/mrashed98/blueprint-cms/internal/core/template"
	"github.com/mrashed98/blueprint-cms/internal/logging"
	"github.com/mrashed98/blueprint-cms/internal/seed"
	"github.com/mrashed98/blueprint-cms/internal/storage/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *postgres.Client
	Auth       *auth.Service
	Blueprints *blueprint.Service
	Content    *content.Service
	Templates  *template.Catalogue
	Engine     *gin.Engine
	Handler    http.Handler

	cache *blueprint.Cache
}

type Option func(*options)

type options struct {
	clock content.Clock
}

// WithClock fixes the time source used for publish stamps.
func WithClock(clock content.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New builds the application. For the postgres driver it connects and, when
// configured, migrates before anything else.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Logger: logger}

	var (
		userRepo      auth.Repository
		blueprintRepo blueprint.Repository
		contentRepo   content.Repository
	)
	switch cfg.Storage.Driver {
	case DriverMemory:
		userRepo = auth.NewMemoryRepository()
		blueprintRepo = blueprint.NewMemoryRepository()
		contentRepo = content.NewMemoryRepository()
	case DriverPostgres, "":
		db, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, err
		}
		a.DB = db
		if cfg.Storage.MigrateOnStart {
			if err := postgres.MigrateUp(db.DB); err != nil {
				db.Close()
				return nil, err
			}
			logger.Info("migrations applied")
		}
		userRepo = auth.NewPostgresRepository(db)
		blueprintRepo = blueprint.NewPostgresRepository(db)
		contentRepo = content.NewPostgresRepository(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	cache, err := blueprint.NewCache(cfg.Cache.MaxCost, cfg.Cache.BlueprintTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cache

	a.Auth = auth.NewService(userRepo, &cfg.JWT, auth.WithLogger(logging.Module(logger, "auth")))
	a.Blueprints = blueprint.NewService(blueprintRepo, contentRepo,
		blueprint.WithCache(cache),
		blueprint.WithLogger(logging.Module(logger, "blueprint")),
	)
	templates, err := template.Load()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Templates = templates

	contentOpts := []content.ServiceOption{
		content.WithLogger(logging.Module(logger, "content")),
		content.WithTemplates(templates),
	}
	if o.clock != nil {
		contentOpts = append(contentOpts, content.WithClock(o.clock))
	}
	a.Content = content.NewService(contentRepo, a.Blueprints, contentOpts...)

	router := api.NewRouter(a.Auth, a.Blueprints, a.Content, a.Templates, logging.Module(logger, "http"))
	a.Engine = router.Setup(cfg.Server.Mode)
	a.Handler = cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Accept-Language", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Language"},
		MaxAge:         300,
	}).Handler(a.Engine)

	return a, nil
}

// Seed installs the built-in blueprint catalogue.
func (a *App) Seed(ctx context.Context) (*seed.Result, error) {
	return seed.Run(ctx, a.Blueprints, logging.Module(a.Logger, "seed"))
}

func (a *App) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
