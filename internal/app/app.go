package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	dbpkg "github.com/yungbote/datagrid-backend/internal/data/db"
	httpserver "github.com/yungbote/datagrid-backend/internal/http"
	"github.com/yungbote/datagrid-backend/internal/observability"
	"github.com/yungbote/datagrid-backend/internal/platform/logger"
	"github.com/yungbote/datagrid-backend/internal/platform/objectstore"
	"github.com/yungbote/datagrid-backend/internal/realtime"
	"github.com/yungbote/datagrid-backend/internal/realtime/bus"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *httpserver.Server
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics
	Store    objectstore.Store

	dbService    *dbpkg.DatabaseService
	bus          bus.Bus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewLogger builds the process logger from cfg.Log.
func NewLogger(cfg Config) (*logger.Logger, error) {
	log, err := logger.NewWithOptions(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// OpenDatabase connects and migrates the schema.
func OpenDatabase(cfg Config, log *logger.Logger) (*dbpkg.DatabaseService, error) {
	dbService, err := dbpkg.NewDatabaseService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return dbService, nil
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Log: log, Cfg: cfg}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	log, cfg := a.Log, a.Cfg
	log.Info("Starting datagrid", "env", cfg.Env, "config_file", cfg.ConfigSrc)

	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	if cfg.MetricsEnabled {
		a.Metrics = observability.NewMetrics()
	}

	dbService, err := OpenDatabase(cfg, log)
	if err != nil {
		return err
	}
	a.dbService = dbService
	a.DB = dbService.DB()

	store, err := resolveObjectStore(ctx, log, cfg.Storage)
	if err != nil {
		return err
	}
	a.Store = store

	a.SSEHub = realtime.NewSSEHub(log)
	if cfg.RedisEnabled() {
		b, err := bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("init redis bus: %w", err)
		}
		a.bus = b
	}

	a.Repos = wireRepos(a.DB, log)
	services, err := wireServices(a.DB, log, cfg, a.Repos, store, a.newEmitter(), a.Metrics)
	if err != nil {
		return err
	}
	a.Services = services

	handlers := wireHandlers(log, cfg, a.Services, a.SSEHub)
	a.Server = httpserver.NewServer(wireRouter(log, cfg, handlers, a.Metrics))
	return nil
}

// newEmitter publishes through the bus when one is configured.
func (a *App) newEmitter() realtime.Emitter {
	if a.bus == nil {
		return realtime.NewEmitter(a.SSEHub, nil, a.Log)
	}
	return realtime.NewEmitter(a.SSEHub, a.bus, a.Log)
}

func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.bus != nil {
		if err := a.bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start event forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "addr", a.Cfg.Addr())
	return a.Server.Run(a.Cfg.Addr())
}

// Shutdown drains in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}

	var err error
	if a.bus != nil {
		err = multierr.Append(err, a.bus.Close())
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = multierr.Append(err, a.otelShutdown(ctx))
		cancel()
	}
	if a.dbService != nil {
		err = multierr.Append(err, a.dbService.Close())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return err
}
