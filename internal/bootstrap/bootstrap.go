// Package bootstrap builds the store, event publisher and application
// service shared by the server and CLI binaries.
package bootstrap

import (
	"context"
	"fmt"

	"retail-suite/internal/app"
	"retail-suite/internal/config"
	"retail-suite/internal/core"
	"retail-suite/internal/db"
	"retail-suite/internal/events"
	"retail-suite/internal/store/memory"
	"retail-suite/internal/store/postgres"

	"go.uber.org/zap"
)

// Runtime is a wired application service plus the resources it holds open.
type Runtime struct {
	Service app.ApplicationService
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// New opens the configured store and publisher and builds the application service.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Runtime, error) {
	rt := &Runtime{}

	store, err := openStore(ctx, cfg, log, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	publisher := openPublisher(cfg, log)
	rt.closers = append(rt.closers, func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	})

	rt.Service = app.NewAppService(store, publisher, log, cfg.DefaultCompany)
	return rt, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, rt *Runtime) (core.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return memory.New(), nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		store := postgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
}

// openPublisher dials the broker when AMQP_URL is set. A broker that cannot
// be reached degrades to logging events rather than blocking startup.
func openPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NewLogPublisher(log)
	}
	p, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange, log)
	if err != nil {
		log.Warn("event broker unavailable, logging events instead", zap.Error(err))
		return events.NewLogPublisher(log)
	}
	log.Info("publishing events", zap.String("exchange", cfg.AMQPExchange))
	return p
}
