package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/gtd-backend/internal/data/db"
	"github.com/yungbote/gtd-backend/internal/http"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/envutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	database     *db.Database
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development", nil))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	database, err := db.NewDatabase(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		_ = database.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := database.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = database.Close()
		log.Sync()
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = database.Close()
		log.Sync()
		return nil, err
	}
	if err := seedFeatureFlags(ctx, log, serviceset.Flags, cfg.FeatureFlagsPath); err != nil {
		clients.Close()
		_ = database.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, cfg, serviceset)
	middleware := wireMiddleware(log, cfg, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		database:     database,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and sweeps expired sessions until ctx is cancelled or one
// of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	server := http.NewServer(a.Log, net.JoinHostPort("", a.Cfg.Port), a.Router)
	g.Go(func() error {
		return server.Run(gctx, shutdownTimeout)
	})
	g.Go(func() error {
		return watchSignals(gctx, a.Log)
	})
	g.Go(func() error {
		a.sweepSessions(gctx)
		return nil
	})
	if a.Metrics != nil && a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.Redis, 15*time.Second)
	}

	err := g.Wait()
	if errors.Is(err, errShutdownSignal) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var errShutdownSignal = errors.New("shutdown signal received")

// watchSignals returns errShutdownSignal on SIGINT/SIGTERM so the group winds down.
func watchSignals(ctx context.Context, log *logger.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-ctx.Done():
		return nil
	case sig := <-sigCh:
		log.Info("Shutting down", "signal", sig.String())
		return errShutdownSignal
	}
}

func (a *App) sweepSessions(ctx context.Context) {
	interval := a.Cfg.SessionSweepInterval
	if interval <= 0 {
		return
	}
	log := a.Log.With("worker", "SessionSweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Services.Auth.SweepExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("Session sweep failed", "error", err)
				}
				continue
			}
			a.Metrics.AddSessionsSwept(n)
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.database != nil {
		if err := a.database.Close(); err != nil && a.Log != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
