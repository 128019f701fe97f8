package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/clock"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/dispatch"
	"github.com/ukydev/fleet-maintenance/internal/kv"
	"github.com/ukydev/fleet-maintenance/internal/ledger"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/metrics"
	"github.com/ukydev/fleet-maintenance/internal/query"
	"github.com/ukydev/fleet-maintenance/internal/recurrence"
	"github.com/ukydev/fleet-maintenance/internal/reminder"
	"github.com/ukydev/fleet-maintenance/internal/settings"
	"github.com/ukydev/fleet-maintenance/internal/throttle"
)

// app holds the wired services shared by every command.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	clock     clock.Clock
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	auth      *auth.Service
	settings  *settings.Store
	ledger    *ledger.Ledger
	queries   *query.Layer
	reminder  *reminder.Service
	lifecycle *maintenance.Service
	closers   []func() error
}

// backends are the external collaborators of an app.
type backends struct {
	store    kv.Store
	tasks    db.MaintenanceCollection
	history  db.HistoryCollection
	notifier dispatch.Notifier
	closers  []func() error
}

// openApp connects to MongoDB, the configured KV backend and, when set, the MQTT broker.
func openApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	b, err := connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		b.close(logger)
		return nil, err
	}
	return assemble(cfg, logger, clock.Real{Location: loc}, b), nil
}

func connect(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backends, error) {
	b := &backends{}

	client, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	b.closers = append(b.closers, func() error { return client.Disconnect(context.Background()) })
	b.tasks, b.history = db.NewMongoCollections(client, cfg.Mongo.Database)
	logger.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	switch cfg.KV.Backend {
	case "memory":
		b.store = kv.NewMemoryStore()
	case "sqlite":
		s, err := kv.NewSQLiteStore(cfg.KV.SQLitePath)
		if err != nil {
			b.close(logger)
			return nil, err
		}
		b.store = s
		b.closers = append(b.closers, s.Close)
	case "redis":
		s, err := kv.NewRedisStore(ctx, kv.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			b.close(logger)
			return nil, err
		}
		b.store = s
		b.closers = append(b.closers, s.Close)
	default:
		b.close(logger)
		return nil, fmt.Errorf("unknown kv backend %q", cfg.KV.Backend)
	}
	logger.WithField("backend", cfg.KV.Backend).Info("Opened state store")

	b.notifier = dispatch.NewLogNotifier(logger)
	if cfg.MQTT.Broker != "" {
		mq, err := dispatch.ConnectMQTT(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.Mongo.Timeout)
		if err != nil {
			logger.WithError(err).Warn("MQTT unavailable, notifications will only be logged")
		} else {
			b.notifier = dispatch.NewMQTTNotifier(mq, cfg.MQTT.TopicPrefix, logger)
			b.closers = append(b.closers, func() error { mq.Disconnect(250); return nil })
			logger.WithField("broker", cfg.MQTT.Broker).Info("Connected to MQTT broker")
		}
	}
	return b, nil
}

func (b *backends) close(logger log.FieldLogger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			logger.WithError(err).Warn("Failed to close backend")
		}
	}
}

// assemble wires the services on top of already opened backends.
func assemble(cfg *config.Config, logger *log.Logger, clk clock.Clock, b *backends) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	st := settings.NewStore(b.store, logger)
	led := ledger.New(b.store, clk, logger)
	queries := query.New(b.tasks, clk, logger, query.WithTimeout(cfg.Scheduler.QueryTimeout), query.WithMetrics(m))
	calc := recurrence.NewCalculator(b.tasks, clk, logger, m)

	return &app{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		registry: registry,
		metrics:  m,
		auth:     auth.NewService(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		settings: st,
		ledger:   led,
		queries:  queries,
		reminder: reminder.NewService(reminder.Deps{
			Settings:   st,
			Queries:    queries,
			Ledger:     led,
			Gate:       throttle.New(b.store, clk, logger),
			Dispatcher: dispatch.New(b.notifier, logger, dispatch.WithMetrics(m)),
			Clock:      clk,
			Logger:     logger,
			Metrics:    m,
		}),
		lifecycle: maintenance.NewService(b.tasks, b.history, calc, clk, logger),
		closers:   b.closers,
	}
}

// Close releases the backends in reverse order of opening.
func (a *app) Close() {
	(&backends{closers: a.closers}).close(a.logger)
}
