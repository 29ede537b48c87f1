package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/db"
	"github.com/pursue-app/pursue-backend/internal/jobs"
	"github.com/pursue-app/pursue-backend/internal/observability"
	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	clients      Clients
	scheduler    *jobs.Scheduler
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "pursue-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clients := wireClients(log)
	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, cfg, reposet, clients)
	if err != nil {
		log.Sync()
		return nil, err
	}

	scheduler, err := jobs.NewScheduler(log, cfg.Jobs, serviceset.Reminders, serviceset.Effectiveness, serviceset.Pattern)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		clients:      clients,
		scheduler:    scheduler,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.scheduler == nil {
		return
	}
	a.scheduler.Start()
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	a.clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown error", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
