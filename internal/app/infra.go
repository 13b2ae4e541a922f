package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/healthalyze/healthalyze_backend/config"
	"github.com/healthalyze/healthalyze_backend/internal/repo"
	"github.com/healthalyze/healthalyze_backend/pkg/database"
	"github.com/healthalyze/healthalyze_backend/pkg/events"
	"github.com/healthalyze/healthalyze_backend/pkg/observability"
	"github.com/healthalyze/healthalyze_backend/pkg/predictor"
	redispkg "github.com/healthalyze/healthalyze_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideDatabase),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvidePredictor),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideEventPublisher),
	fx.Provide(ProvideOTel),
)

func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config) (*database.DB, error) {
	dbCfg := database.FromCentralConfig(cfg.Database)
	if err := database.InitializeDatabase(dbCfg); err != nil {
		return nil, err
	}
	db, err := database.New(dbCfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return db.Close()
		},
	})
	return db, nil
}

// ProvideStore builds the assessment store and, when auto-migrate is on,
// creates or upgrades its table before the server starts.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, db *database.DB) *repo.Store {
	store := repo.NewStore(db)
	if cfg.Database.Migrations.AutoMigrate {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				slog.Info("running schema migration", "dialect", db.Dialect())
				return store.Migrate(ctx)
			},
		})
	}
	return store
}

// ProvideRedis returns nil when no address is configured.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled() {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvidePredictor(cfg *config.Config) (*predictor.Client, error) {
	return predictor.New(predictor.FromCentralConfig(cfg.Predictor))
}

// ProvideNatsClient returns nil when no NATS server is configured.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if !cfg.Events.Enabled() {
		return nil, nil
	}
	nc, err := events.Connect(cfg.Events, cfg.Observability.ServiceName)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideEventPublisher(cfg *config.Config, nc *nats.Conn) events.Publisher {
	if nc == nil {
		return events.Nop{}
	}
	return events.NewNatsPublisher(nc, cfg.Events.SubjectPrefix)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
