// Package app wires the chatapp components together with fx.
package app

import (
	"context"
	"fmt"

	"github.com/aboucelia/chatapp/internal/bus"
	"github.com/aboucelia/chatapp/internal/config"
	"github.com/aboucelia/chatapp/internal/delivery"
	"github.com/aboucelia/chatapp/internal/kv"
	"github.com/aboucelia/chatapp/internal/lock"
	"github.com/aboucelia/chatapp/internal/logging"
	"github.com/aboucelia/chatapp/internal/persist"
	"github.com/aboucelia/chatapp/internal/profile"
	"github.com/aboucelia/chatapp/internal/session"
	"github.com/aboucelia/chatapp/internal/status"
	"github.com/aboucelia/chatapp/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile and configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	// Console mirrors log lines to stderr. Off for the terminal UI.
	Console bool
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("chatapp",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideFacade,
			provideScheduler,
			provideManager,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Path:    profile.LogPath(p.Profile),
		Profile: p.Profile,
		Level:   p.Config.Log.Level,
		Console: p.Console,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

// provideStore opens the configured backend. It depends on the lock so the
// store is never opened by a second process.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (kv.Store, error) {
	switch backend := p.Config.Storage.Backend; backend {
	case config.BackendMemory:
		logger.Info("store initialized", zap.String("backend", backend))
		return kv.NewMemory(), nil
	case config.BackendBadger:
		dir := profile.BadgerDir(p.Profile)
		b, err := kv.OpenBadger(dir, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("store initialized", zap.String("backend", backend), zap.String("path", dir))
		return b, nil
	case config.BackendSQLite:
		path := profile.DBPath(p.Profile)
		db, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		result, err := db.Migrate()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if result.Changed {
			logger.Info("migrations applied", zap.Uint("version", result.Version))
		} else {
			logger.Info("migrations up to date", zap.Uint("version", result.Version))
		}
		keys, err := db.KeyCount(context.Background())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("count keys: %w", err)
		}
		logger.Info("store initialized", zap.String("backend", backend), zap.String("path", path), zap.Int64("keys", keys))
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func provideFacade(s kv.Store, logger *zap.Logger) *persist.Facade {
	return persist.New(s, logger.Named("persist"))
}

func provideScheduler(logger *zap.Logger) *delivery.Scheduler {
	return delivery.NewScheduler(logger.Named("delivery"))
}

func provideManager(p Params, f *persist.Facade, m *status.Machine, sched *delivery.Scheduler, b *bus.Bus, logger *zap.Logger) *session.Manager {
	return session.NewManager(f, m, sched, b, logger.Named("session"), session.Options{
		DeliveryDelay: p.Config.Delivery.Delay.Duration,
	})
}

func registerLifecycle(lc fx.Lifecycle, mgr *session.Manager, sched *delivery.Scheduler, s kv.Store, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := mgr.Init(ctx); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			logger.Info("started", zap.String("state", string(mgr.State())))
			return nil
		},
		OnStop: func(_ context.Context) error {
			sched.Stop()
			if err := s.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
