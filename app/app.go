// Package app is the composition root: it wires the container, the
// route table, the middleware chains, and the transport server into a
// runnable marketplace.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stallkit/stall/auth"
	"github.com/stallkit/stall/config"
	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/hub"
	"github.com/stallkit/stall/market/account"
	"github.com/stallkit/stall/market/cart"
	"github.com/stallkit/stall/market/catalog"
	"github.com/stallkit/stall/market/order"
	"github.com/stallkit/stall/middleware"
	"github.com/stallkit/stall/router"
	"github.com/stallkit/stall/session"
	transport "github.com/stallkit/stall/transport/http"
)

// App represents the assembled application.
type App struct {
	config    *config.Config
	logger    *zap.Logger
	container *container.Container
	router    *router.Router
	server    *transport.Server
	hub       *hub.Hub

	shutdownTimeout time.Duration
}

// Option defines a functional option for App.
type Option func(*App) error

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		a.config = cfg
		return nil
	}
}

// WithLogger sets the application logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// WithShutdownTimeout sets how long Shutdown waits for in-flight work.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(a *App) error {
		if timeout <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		a.shutdownTimeout = timeout
		return nil
	}
}

// New assembles the application: bindings first, then routes, then the
// transport server. Composition errors abort startup.
func New(opts ...Option) (*App, error) {
	a := &App{
		container:       container.New(),
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if a.config == nil {
		a.config = config.DefaultConfig()
	}
	if a.logger == nil {
		logger, err := a.config.BuildLogger()
		if err != nil {
			return nil, err
		}
		a.logger = logger
	}

	if err := a.registerBindings(); err != nil {
		return nil, fmt.Errorf("compose container: %w", err)
	}

	a.router = router.New(a.container)
	a.registerRoutes()

	adapter := transport.NewAdapter(a.router, a.logger, a.config.Uploads.TempDir)
	a.server = transport.NewServer(a.config.Server.Address, adapter, a.logger)
	a.server.SetTimeouts(
		a.config.Server.ReadTimeout,
		a.config.Server.WriteTimeout,
		a.config.Server.IdleTimeout,
	)

	manager := container.MustResolve[*session.Manager](a.container)
	a.server.Mount("/ws/dashboard", a.hub.Handler(manager))
	a.server.OnShutdown(func(ctx context.Context) error {
		return a.hub.Shutdown(5 * time.Second)
	})
	a.server.OnShutdown(func(ctx context.Context) error {
		container.MustResolve[*session.MemoryStore](a.container).Close()
		return nil
	})

	return a, nil
}

// registerBindings populates the container. Everything application-
// scoped is a singleton or a pre-built instance; handlers stay unbound
// and are auto-built per resolution.
func (a *App) registerBindings() error {
	c := a.container
	cfg := a.config

	c.Instance(cfg)
	c.Instance(a.logger)

	// Sessions.
	sessionStore := session.NewMemoryStore(cfg.Session.TTL)
	c.Instance(sessionStore)
	container.InstanceAs[session.Store](c, sessionStore)
	c.Instance(session.NewManager(
		sessionStore,
		cfg.Session.CookieName,
		cfg.Session.Secret,
		cfg.Session.TTL,
		cfg.Session.Secure,
	))

	// Tokens.
	c.Instance(auth.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.Issuer))
	if err := c.Singleton(auth.NewBearer); err != nil {
		return err
	}

	// Repositories, exposed behind their interfaces.
	container.InstanceAs[account.Repository](c, account.NewMemoryRepository())
	container.InstanceAs[catalog.Repository](c, catalog.NewMemoryRepository())
	container.InstanceAs[order.Repository](c, order.NewMemoryRepository())

	// Domain services.
	if err := c.Singleton(account.NewService); err != nil {
		return err
	}
	if err := c.Singleton(func(repo catalog.Repository) *catalog.Service {
		return catalog.NewService(repo, cfg.Uploads.Dir)
	}); err != nil {
		return err
	}
	if err := c.Singleton(cart.NewService); err != nil {
		return err
	}

	gateway, err := order.GatewayFor(cfg.Payment.Gateway)
	if err != nil {
		return err
	}
	container.InstanceAs[order.Gateway](c, gateway)

	a.hub = hub.NewHub(a.logger)
	go a.hub.Run()
	c.Instance(a.hub)
	container.InstanceAs[order.EventPublisher](c, a.hub)

	if err := c.Singleton(order.NewService); err != nil {
		return err
	}

	// Middleware units referenced by token from the route table.
	if err := c.Singleton(middleware.NewAccessLogger); err != nil {
		return err
	}
	if cfg.RateLimit.Enabled {
		limitStore := middleware.NewMemoryStore(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
		container.InstanceAs[middleware.RateLimiter](c, limitStore)
		if err := c.Singleton(middleware.NewRateLimit); err != nil {
			return err
		}
	}

	return nil
}

// Container returns the composition container.
func (a *App) Container() *container.Container { return a.container }

// Router returns the route table.
func (a *App) Router() *router.Router { return a.router }

// Hub returns the order-event hub.
func (a *App) Hub() *hub.Hub { return a.hub }

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	a.logger.Info("starting marketplace",
		zap.String("address", a.config.Server.Address),
		zap.String("gateway", a.config.Payment.Gateway))
	return a.server.Start()
}

// Shutdown gracefully stops the server, the hub, and the session
// store.
func (a *App) Shutdown(ctx context.Context) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.shutdownTimeout)
		defer cancel()
	}
	return a.server.Shutdown(ctx)
}
