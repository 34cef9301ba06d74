package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lingua-backend/internal/data/db"
	lhttp "github.com/yungbote/lingua-backend/internal/http"
	"github.com/yungbote/lingua-backend/internal/observability"
	"github.com/yungbote/lingua-backend/internal/platform/envutil"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
)

const serviceName = "lingua-api"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *lhttp.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
	})

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, err
	}
	theDB := clients.DB.DB()
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			clients.Close()
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = otelShutdown(context.Background())
		return nil, err
	}
	handlers := wireHandlers(log, theDB, cfg, serviceset)
	middleware := wireMiddleware(log, serviceset)

	server := lhttp.NewServer(lhttp.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		TracingEnabled:    envutil.Bool("OTEL_ENABLED", false),
		Metrics:           metrics,
		CORSOrigins:       cfg.CORSOrigins,
		MediaDir:          clients.MediaDir,
		AuthMiddleware:    middleware.Auth,
		AuthHandler:       handlers.Auth,
		UserHandler:       handlers.User,
		CatalogHandler:    handlers.Catalog,
		ContentHandler:    handlers.Content,
		StudyHandler:      handlers.Study,
		ExtractionHandler: handlers.Extraction,
		HealthHandler:     handlers.Health,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background collectors. Run calls it if needed.
func (a *App) Start(ctx context.Context) {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 30*time.Second)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 30*time.Second)
		}
	}
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start(ctx)
	a.Log.Info("HTTP server listening", "addr", a.Cfg.Address())
	return a.Server.Run(ctx, a.Cfg.Address())
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	a.Log.Sync()
}

// Store is the database plus repos, for CLI commands that do not serve HTTP.
type Store struct {
	DB    *db.Service
	Repos Repos
}

func OpenStore(log *logger.Logger, cfg Config, migrate bool) (*Store, error) {
	dbs, err := openDB(log, cfg.DB)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.AutoMigrateAll(dbs.DB()); err != nil {
			_ = dbs.Close()
			return nil, err
		}
	}
	return &Store{DB: dbs, Repos: wireRepos(dbs.DB(), log)}, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
