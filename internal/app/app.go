package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/Pleso100/Kolgidrat/core/bootstrap"
	"github.com/Pleso100/Kolgidrat/core/cmd"
	"github.com/Pleso100/Kolgidrat/core/logger"
	coretelegram "github.com/Pleso100/Kolgidrat/core/telegram"
	tgsender "github.com/Pleso100/Kolgidrat/core/telegram/sender"
	"github.com/Pleso100/Kolgidrat/core/telegram/state"
	"github.com/Pleso100/Kolgidrat/internal/catalog"
	"github.com/Pleso100/Kolgidrat/internal/conversation"
	"github.com/Pleso100/Kolgidrat/internal/dispatcher"
	"github.com/Pleso100/Kolgidrat/internal/gateway"
	"github.com/Pleso100/Kolgidrat/internal/metrics"
)

// drainTimeout bounds how long shutdown waits for queued updates.
const drainTimeout = 10 * time.Second

// App holds the wired bot.
type App struct {
	cfg *Config

	db      *sqlx.DB
	redis   *redis.Client
	store   catalog.Store
	metrics *metrics.Metrics

	dispatcher *dispatcher.Dispatcher
	gateway    *gateway.Gateway

	stopServer context.CancelFunc
	serveErr   chan error
}

// LoadCarrier adapts LoadConfig to cmd.Options.
func LoadCarrier(path string) (cmd.ConfigCarrier, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging and storage, then wires the App.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:       &cfg.Config,
		Database:     cfg.Database,
		SkipDatabase: cfg.Catalog.Backend != BackendPostgres,
	})
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, res.DB)
	if err != nil {
		if res.DB != nil {
			_ = res.DB.Close()
		}
		return nil, err
	}
	if err := bootstrap.RunSeeders(logger.Background(), a.Seeder()); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

// New wires the App from cfg. db is required for the postgres catalog.
func New(cfg *Config, db *sqlx.DB) (*App, error) {
	a := &App{cfg: cfg, db: db, metrics: metrics.New()}

	switch cfg.Catalog.Backend {
	case BackendPostgres:
		if db == nil {
			return nil, errors.New("app: postgres catalog needs a database")
		}
		a.store = catalog.NewPostgres(db)
	case BackendMemory:
		a.store = catalog.NewMemory()
	default:
		return nil, fmt.Errorf("app: unknown catalog backend %q", cfg.Catalog.Backend)
	}

	sessions, err := a.sessions()
	if err != nil {
		return nil, err
	}

	if cfg.Admin.Password == "" {
		logger.Warn(logger.Background(), "app", "admin.disabled")
	}
	engine := conversation.NewEngine(a.store,
		conversation.WithPassword(cfg.Admin.Password),
		conversation.WithCatalogTimeout(cfg.Catalog.CatalogTimeout()),
	)
	a.dispatcher = dispatcher.New(sessions, engine, dispatcher.WithObserver(a.metrics))
	a.gateway = gateway.New(a.dispatcher)
	return a, nil
}

func (a *App) sessions() (*state.Manager[conversation.Session], error) {
	sc := a.cfg.Session
	switch sc.Backend {
	case BackendMemory:
		return dispatcher.NewSessions(state.NewMemoryBackend[conversation.Session]()), nil
	case BackendRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
		})
		backend := state.NewRedisBackend[conversation.Session](a.redis,
			state.WithPrefix(sc.Prefix),
			state.WithTTL(sc.TTL()),
		)
		var opts []state.Option
		if sc.LockTTLMS > 0 {
			opts = append(opts, state.WithLocker(state.NewRedisLocker(a.redis, sc.Prefix), sc.LockTTL()))
		}
		return dispatcher.NewSessions(backend, opts...), nil
	default:
		return nil, fmt.Errorf("app: unknown session backend %q", sc.Backend)
	}
}

// Seeder fills an empty catalog with the configured products.
func (a *App) Seeder() bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context) (int, error) {
		if len(a.cfg.Catalog.Seed) == 0 {
			return 0, nil
		}
		existing, err := a.store.Search(ctx, "")
		if err != nil {
			return 0, fmt.Errorf("seed: count catalog: %w", err)
		}
		if len(existing) > 0 {
			return 0, nil
		}
		n := 0
		for _, sp := range a.cfg.Catalog.Seed {
			p := catalog.Product{Name: sp.Name, Carbs: sp.Carbs, BreadUnits: sp.BreadUnits}
			if _, err := a.store.Insert(ctx, p); err != nil {
				return n, fmt.Errorf("seed %q: %w", sp.Name, err)
			}
			n++
		}
		return n, nil
	})
}

// Health lists the dependency checks served on /healthz.
func (a *App) Health() map[string]metrics.HealthFunc {
	checks := map[string]metrics.HealthFunc{}
	if a.db != nil {
		checks["database"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	return checks
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := gateway.Registry()
	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		// One worker keeps the replies to a user in order.
		DispatcherOptions: tgsender.Options{Workers: 1, MaxRetries: 2, Observer: a.metrics},
		Middlewares:       coretelegram.DefaultMiddlewares(a.metrics),
		Routes:            a.gateway.Routes(reg),
		OnStart:           a.start,
		OnStop:            a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	if rt.Dispatcher != nil {
		a.metrics.RegisterQueueGauge(rt.Dispatcher.QueueLen)
	}
	listen := strings.TrimSpace(a.cfg.Metrics.Listen)
	if listen == "" {
		return nil
	}
	srv, err := metrics.Listen(listen, metrics.Router(a.metrics, a.Health()))
	if err != nil {
		return fmt.Errorf("app: metrics listen: %w", err)
	}
	srvCtx, cancel := context.WithCancel(ctx)
	a.stopServer = cancel
	a.serveErr = make(chan error, 1)
	go func() { a.serveErr <- srv.Serve(srvCtx) }()
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	var errs []error
	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	if err := a.gateway.Close(drainCtx); err != nil {
		errs = append(errs, fmt.Errorf("app: drain updates: %w", err))
	}
	if a.serveErr != nil {
		a.stopServer()
		if err := <-a.serveErr; err != nil {
			errs = append(errs, fmt.Errorf("app: metrics server: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		logger.Error(ctx, "app", "stop.fail", slog.String("err", errors.Join(errs...).Error()))
	}
	return errors.Join(errs...)
}

// Close releases database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
		a.redis = nil
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}
