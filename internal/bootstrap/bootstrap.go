// Package bootstrap builds the storefront object graph from configuration.
// Every backend with an external dependency (SQL, Redis, MongoDB, SMTP) has an
// in-process fallback so a bare checkout runs with no services at all.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gql "github.com/graphql-go/graphql"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/audit"
	"github.com/shashiranjanraj/storefront/app/controllers"
	appgraphql "github.com/shashiranjanraj/storefront/app/graphql"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/listeners"
	"github.com/shashiranjanraj/storefront/app/reports"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/database/seeders"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	schemautil "github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/mail"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/ws"

	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

// App is a fully wired storefront.
type App struct {
	Store repositories.Store
	// DB is nil when the memory store is in use.
	DB    *gorm.DB
	Redis *redis.Client
	Cache cache.Store

	Events  *event.Bus
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Auth    *services.AuthService

	Hub    *ws.Hub
	Audit  audit.Sink
	Queue  *queue.Manager
	Mailer mail.Mailer
	// Exports is nil when no storage disk could be opened.
	Exports *reports.OrderExporter
	Limiter *middleware.RateLimiter
	Schema  gql.Schema
	HTTP    *kernel.HTTP
}

// New opens the configured backends and wires services, listeners and the
// HTTP kernel. Close releases what it opened.
func New(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("bootstrap: config: %w", err)
	}
	a := &App{Events: event.New()}

	store, db, err := OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store, a.DB = store, db

	if err := cache.Connect(ctx); err != nil {
		logger.Warn("bootstrap: redis unavailable, using in-process cache", "error", err)
	}
	a.Redis = cache.RDB
	a.Cache = cache.Default()

	a.Catalog = services.NewCatalogService(a.Store, a.Cache, a.Events, config.CatalogCacheTTL())
	a.Orders = services.NewOrderService(a.Store, a.Events)
	a.Auth = services.NewAuthService(a.Store.Users())

	a.Hub = ws.NewHub(config.CORSOrigins()...)
	a.Audit = openAudit(ctx)
	a.Queue = a.openQueue()
	a.Mailer = mail.Default()
	if disk, err := storage.FromEnv(ctx); err != nil {
		logger.Warn("bootstrap: file storage unavailable, order exports disabled", "error", err)
	} else {
		a.Exports = reports.NewOrderExporter(a.Orders, disk)
	}

	jobs.Register(a.Queue, a.Store.Orders(), a.Mailer)
	listeners.Register(a.Events, listeners.Deps{
		Queue:   a.Queue,
		Audit:   a.Audit,
		Feed:    a.Hub,
		Catalog: a.Catalog,
	})

	if a.Schema, err = appgraphql.NewSchema(a.Catalog, a.Orders); err != nil {
		a.Close(ctx) //nolint:errcheck
		return nil, fmt.Errorf("bootstrap: graphql schema: %w", err)
	}

	rps := config.RateLimitRPS()
	a.Limiter = middleware.NewRateLimiter(rps, int(rps*2), 10*time.Minute)
	a.HTTP = kernel.NewHTTP(a.Handlers(), a.Limiter)
	return a, nil
}

// Handlers builds the controllers the routes dispatch to.
func (a *App) Handlers() routes.Handlers {
	return routes.Handlers{
		Products:   controllers.NewProductController(a.Catalog),
		Categories: controllers.NewCategoryController(a.Catalog),
		Orders:     controllers.NewOrderController(a.Orders, a.Audit, a.Exports),
		Auth:       controllers.NewAuthController(a.Auth),
		Feed:       controllers.NewFeedController(a.Hub),
		Health:     controllers.NewHealthController(a.Store.Ping),
		GraphQL:    schemautil.Handler(a.Schema),
	}
}

// OpenStore returns the repository backend named by STORE_DRIVER. The
// database backend is migrated to the latest schema; the memory backend is
// seeded with the sample catalog and admin account.
func OpenStore(ctx context.Context) (repositories.Store, *gorm.DB, error) {
	if config.StoreDriver() == "memory" {
		store := repositories.NewMemoryStore()
		if err := seeders.RunAll(ctx, store, io.Discard); err != nil {
			return nil, nil, fmt.Errorf("bootstrap: seed memory store: %w", err)
		}
		logger.Info("bootstrap: using in-memory store")
		return store, nil, nil
	}

	db, err := OpenDB()
	if err != nil {
		return nil, nil, err
	}
	if err := migration.New(db, migration.WithOutput(io.Discard)).Run(); err != nil {
		return nil, nil, fmt.Errorf("bootstrap: migrate: %w", err)
	}
	logger.Info("bootstrap: using database store", "driver", config.DatabaseDriver())
	return repositories.NewGormStore(db), db, nil
}

// OpenDB connects to the configured SQL database without migrating it.
func OpenDB() (*gorm.DB, error) {
	if err := database.Connect(); err != nil {
		return nil, fmt.Errorf("bootstrap: database: %w", err)
	}
	return database.DB, nil
}

func openAudit(ctx context.Context) audit.Sink {
	uri := config.MongoURI()
	if uri == "" {
		return audit.NewMemory(1000)
	}
	dctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sink, err := audit.DialMongo(dctx, uri, config.MongoDatabase())
	if err != nil {
		logger.Warn("bootstrap: mongo unavailable, keeping audit trail in memory", "error", err)
		return audit.NewMemory(1000)
	}
	return sink
}

func (a *App) openQueue() *queue.Manager {
	var driver queue.Driver = queue.NewMemoryDriver()
	if config.QueueDriver() == "redis" {
		if a.Redis != nil {
			driver = queue.NewRedisDriver(a.Redis)
		} else {
			logger.Warn("bootstrap: QUEUE_DRIVER=redis but redis is unavailable, using memory queue")
		}
	}
	var opts []queue.Option
	if a.DB != nil {
		opts = append(opts, queue.WithFailedJobStore(a.DB))
	}
	return queue.New(driver, opts...)
}

// Close flushes the audit sink and closes connections. Workers and servers
// must already be stopped.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
