package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/arnavshah/manifest-api-go/internal/config"
	"github.com/arnavshah/manifest-api-go/pkg/auth"
	"github.com/arnavshah/manifest-api-go/pkg/coordinator"
	"github.com/arnavshah/manifest-api-go/pkg/database"
	"github.com/arnavshah/manifest-api-go/pkg/handlers"
	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/arnavshah/manifest-api-go/pkg/metrics"
	"github.com/arnavshah/manifest-api-go/pkg/mongostore"
	"github.com/arnavshah/manifest-api-go/pkg/remote"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// App is the assembled service
type App struct {
	Router *gin.Engine
	Coord  *coordinator.Coordinator
	DB     *gorm.DB
	Log    logger.Logger

	closers []func(context.Context) error
}

// New opens the database and trip store, fills the cache and builds the router
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if cfg.JWTSecret == "" || cfg.APIMasterSecret == "" {
		log.Warn("JWT_SECRET or API_MASTER_SECRET is empty; tokens and board keys are not secure")
	}
	auth.Configure(cfg.JWTSecret, cfg.APIMasterSecret)

	db, err := database.InitDB(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	created, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin operator: %w", err)
	}
	if created {
		log.Info("Default admin operator created", "username", cfg.AdminUsername)
	}

	a := &App{DB: db, Log: log}
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	store, sites, err := a.openStore(ctx, cfg, db, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("manifest", reg)

	a.Coord = coordinator.New(store, log, m, nil)
	if err := a.Coord.Refresh(ctx); err != nil {
		log.Warn("Initial refresh failed; serving an empty manifest until the next refresh", "error", err)
	}

	h := &handlers.Handler{
		DB:     db,
		Coord:  a.Coord,
		Sites:  sites,
		Log:    log,
		Config: cfg,
	}
	a.Router = handlers.NewRouter(h, reg)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, db *gorm.DB, log logger.Logger) (coordinator.Store, handlers.SiteWriter, error) {
	switch cfg.StoreBackend {
	case config.StoreSQL, "":
		s := database.NewSQLStore(db)
		log.Info("Using SQL trip store")
		return s, s, nil

	case config.StoreRemote:
		if cfg.RemoteBaseURL == "" {
			return nil, nil, fmt.Errorf("REMOTE_BASE_URL is required for the %s store", config.StoreRemote)
		}
		log.Info("Using remote trip store", "base_url", cfg.RemoteBaseURL)
		return remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteToken, log), nil, nil

	case config.StoreMongo:
		client, err := mongostore.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, client.Disconnect)

		s, err := mongostore.New(ctx, client.Database(cfg.MongoDB))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to prepare MongoDB collections: %w", err)
		}
		log.Info("Using MongoDB trip store", "database", cfg.MongoDB)
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// Close releases the store and database connections in reverse order
// RefreshingHandler serves the router, first refetching a cache older than
// maxAge. If that refetch fails the cached manifest is served anyway with
// X-Manifest-Stale set.
func (a *App) RefreshingHandler(maxAge time.Duration) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		if time.Since(a.Coord.RefreshedAt()) > maxAge {
			if err := a.Coord.Refresh(req.Context()); err != nil {
				a.Log.Warn("Serving cached manifest", "path", req.URL.Path, "error", err)
				w.Header().Set("X-Manifest-Stale", "true")
			}
		}
		mu.Unlock()

		a.Router.ServeHTTP(w, req)
	})
}

// Close releases the store and database in reverse order of opening
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
