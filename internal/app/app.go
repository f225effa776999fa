// Package app assembles the service from configuration: storage, repositories,
// services and the HTTP application.
package app

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shop-service/internal/api/http"
	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/config"
	"github.com/spec-kit/shop-service/internal/events"
	"github.com/spec-kit/shop-service/internal/observability"
	"github.com/spec-kit/shop-service/internal/persistence"
	"github.com/spec-kit/shop-service/internal/repository"
	"github.com/spec-kit/shop-service/internal/service"
	"github.com/spec-kit/shop-service/internal/throttle"
	"github.com/spec-kit/shop-service/internal/worker"
)

const loginLimiterPrefix = "shop:login:"

// Store is the opened credential store backend.
type Store interface {
	Ping(ctx context.Context) error
	Close()
}

// Runtime holds every long-lived dependency of the service.
type Runtime struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Store      Store
	Redis      *persistence.Redis
	Users      repository.UserRepository
	Products   repository.ProductRepository
	Orders     repository.OrderRepository
	Carts      repository.CartRepository
	Dispatcher events.Dispatcher
	Tokens     *auth.TokenManager

	AuthService    *service.AuthService
	UserService    *service.UserService
	ProductService *service.ProductService
	OrderService   *service.OrderService
	CartService    *service.CartService
}

// Open connects the configured backend, applies migrations when enabled and
// builds the service layer.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewMetrics(),
		Dispatcher: events.NewInMemoryDispatcher(),
	}

	if err := rt.openStore(ctx); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), cfg.Auth.Issuer, cfg.Auth.Audience)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("token manager: %w", err)
	}
	rt.Tokens = tokens

	rt.Redis = persistence.NewRedis(cfg.Redis, logger)

	worker.StartAuditWorker(service.NewAuditService(rt.Dispatcher, logger))

	rt.AuthService = service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:     rt.Users,
		TokenManager: tokens,
		Limiter:      rt.loginLimiter(),
		Dispatcher:   rt.Dispatcher,
		Metrics:      rt.Metrics,
		Logger:       logger,
	})
	rt.UserService = service.NewUserService(rt.Users, rt.Dispatcher, logger, cfg.Auth.BcryptCost)
	rt.ProductService = service.NewProductService(rt.Products, rt.Dispatcher, logger)
	rt.OrderService = service.NewOrderService(rt.Orders, rt.Products, rt.Users, rt.Dispatcher, logger)
	rt.CartService = service.NewCartService(rt.Carts, rt.Products, rt.Users, rt.Dispatcher, logger)
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context) error {
	cfg := rt.Config.Database
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLitePath, rt.Logger)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		if cfg.RunMigrations {
			if err := persistence.RunSQLiteMigrations(ctx, db.DB, rt.Logger); err != nil {
				db.Close()
				return fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		rt.Store = db
		rt.Users = repository.NewSQLiteUserRepository(db.DB)
		rt.Products = repository.NewSQLiteProductRepository(db.DB)
		rt.Orders = repository.NewSQLiteOrderRepository(db.DB)
		rt.Carts = repository.NewSQLiteCartRepository(db.DB)
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg, rt.Logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := persistence.RunPostgresMigrations(ctx, pg.PoolHandle(), rt.Logger); err != nil {
				pg.Close()
				return fmt.Errorf("migrate postgres: %w", err)
			}
		}
		rt.Store = pg
		rt.Users = repository.NewUserRepository(pg.PoolHandle())
		rt.Products = repository.NewProductRepository(pg.PoolHandle())
		rt.Orders = repository.NewOrderRepository(pg.PoolHandle())
		rt.Carts = repository.NewCartRepository(pg.PoolHandle())
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return nil
}

func (rt *Runtime) loginLimiter() throttle.Limiter {
	ac := rt.Config.Auth
	if ac.LoginMaxAttempts <= 0 {
		return throttle.Disabled{}
	}
	if rt.Redis != nil {
		return throttle.NewRedisLimiter(rt.Redis.Client, loginLimiterPrefix, ac.LoginMaxAttempts, ac.LoginWindow())
	}
	rt.Logger.Info("login throttling uses in-process counters")
	return throttle.NewMemoryLimiter(ac.LoginMaxAttempts, ac.LoginWindow())
}

// NewHTTPApp builds the fiber application with middlewares and routes.
func (rt *Runtime) NewHTTPApp() *fiber.App {
	cfg := rt.Config
	transport := auth.NewTransport(cfg.Auth)
	guard := auth.NewGuard(rt.Tokens, rt.Users, transport, rt.Metrics, rt.Logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, rt.Logger, rt.Metrics, cfg.App.RequestTimeout(), cfg.CORS.AllowedOrigin)

	var redis handlers.Pinger
	if rt.Redis != nil {
		redis = rt.Redis
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, rt.Store, redis),
		Auth:     handlers.NewAuthHandler(rt.AuthService, transport),
		Users:    handlers.NewUsersHandler(rt.UserService),
		Products: handlers.NewProductsHandler(rt.ProductService),
		Orders:   handlers.NewOrdersHandler(rt.OrderService),
		Carts:    handlers.NewCartsHandler(rt.CartService),
		Guard:    guard,
		Metrics:  rt.Metrics,
	})
	return app
}

// Close releases storage connections.
func (rt *Runtime) Close() {
	if rt.Redis != nil {
		rt.Redis.Close()
	}
	if rt.Store != nil {
		rt.Store.Close()
	}
}
