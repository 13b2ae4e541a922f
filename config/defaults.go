package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/healthalyze/healthalyze_backend/pkg/constants"
)

// Default returns the configuration used when neither the file nor the
// environment set a value. It targets a local single-node setup.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    "stroke_prediction.sqlite",
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Pool: DatabasePoolConfig{
				MaxOpenConns:       25,
				MaxIdleConns:       5,
				ConnMaxLifetimeMin: 5,
			},
			Migrations: DatabaseMigrationConfig{AutoMigrate: true},
		},
		Redis: RedisConfig{
			PoolSize:            10,
			MinIdleConns:        2,
			DialTimeoutSeconds:  5,
			ReadTimeoutSeconds:  3,
			WriteTimeoutSeconds: 3,
		},
		Server: ServerConfig{
			Port:           8080,
			TimeoutSeconds: 30,
			Environment:    "development",
			RateLimit: RateLimitConfig{
				Max:               20,
				ExpirationSeconds: 30,
			},
		},
		Identity: IdentityConfig{SubjectHeader: "X-Subject-Id"},
		Predictor: PredictorConfig{
			BaseURL:        "http://localhost:8000",
			Path:           "/api/predict",
			TimeoutSeconds: 10,
		},
		Drafts: DraftsConfig{
			Backend:    "memory",
			TTLMinutes: 24 * 60,
		},
		Events: EventsConfig{SubjectPrefix: "healthalyze"},
		Observability: ObservabilityConfig{
			ServiceName:    constants.ServiceName,
			ServiceVersion: "dev",
			Tracing:        TracingConfig{SamplingRate: 1.0},
			Metrics:        MetricsConfig{Path: "/metrics"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: OutputConfig{Stdout: true},
		},
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("database.host and database.dbname are required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of postgres, sqlite", c.Database.Driver))
	}

	if c.Predictor.BaseURL == "" {
		errs = append(errs, errors.New("predictor.base_url is required"))
	} else if u, err := url.Parse(c.Predictor.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("predictor.base_url %q is not an absolute URL", c.Predictor.BaseURL))
	}

	switch c.Drafts.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled() {
			errs = append(errs, errors.New("drafts.backend redis requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("drafts.backend %q is not one of memory, redis", c.Drafts.Backend))
	}

	if c.Server.RateLimit.Enabled && !c.Redis.Enabled() {
		errs = append(errs, errors.New("server.rate_limit requires redis.addr"))
	}

	if c.Identity.SubjectHeader == "" {
		errs = append(errs, errors.New("identity.subject_header is required"))
	}

	return errors.Join(errs...)
}
