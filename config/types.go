package config

type Config struct {
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Redis         RedisConfig         `mapstructure:"redis" yaml:"redis"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Identity      IdentityConfig      `mapstructure:"identity" yaml:"identity"`
	Predictor     PredictorConfig     `mapstructure:"predictor" yaml:"predictor"`
	Drafts        DraftsConfig        `mapstructure:"drafts" yaml:"drafts"`
	Events        EventsConfig        `mapstructure:"events" yaml:"events"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
}

type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver     string                  `mapstructure:"driver" yaml:"driver"`
	Path       string                  `mapstructure:"path" yaml:"path"` // sqlite only
	Host       string                  `mapstructure:"host" yaml:"host"`
	Port       int                     `mapstructure:"port" yaml:"port"`
	User       string                  `mapstructure:"user" yaml:"user"`
	Password   string                  `mapstructure:"password" yaml:"password"`
	DBName     string                  `mapstructure:"dbname" yaml:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode" yaml:"sslmode"`
	Pool       DatabasePoolConfig      `mapstructure:"pool" yaml:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations" yaml:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns       int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes" yaml:"conn_max_lifetime_minutes"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr" yaml:"addr"`
	DB                  int    `mapstructure:"db" yaml:"db"`
	Username            string `mapstructure:"username" yaml:"username"`
	Password            string `mapstructure:"password" yaml:"password"`
	PoolSize            int    `mapstructure:"pool_size" yaml:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns" yaml:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds" yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// Enabled reports whether a Redis address was configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type ServerConfig struct {
	Port           int             `mapstructure:"port" yaml:"port"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Environment    string          `mapstructure:"environment" yaml:"environment"`
	CORS           CORSConfig      `mapstructure:"cors" yaml:"cors"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled"`
	Max               int  `mapstructure:"max" yaml:"max"`
	ExpirationSeconds int  `mapstructure:"expiration_seconds" yaml:"expiration_seconds"`
}

// IdentityConfig describes how the upstream identity provider hands us the subject.
type IdentityConfig struct {
	SubjectHeader string `mapstructure:"subject_header" yaml:"subject_header"`
}

type PredictorConfig struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	Path           string `mapstructure:"path" yaml:"path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

type DraftsConfig struct {
	// Backend is "redis" or "memory".
	Backend    string `mapstructure:"backend" yaml:"backend"`
	TTLMinutes int    `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
}

// EventsConfig points at the NATS server that receives assessment events.
// Publishing is disabled when NatsURL is empty.
type EventsConfig struct {
	NatsURL       string `mapstructure:"nats_url" yaml:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
}

// Enabled reports whether a NATS server was configured.
func (c EventsConfig) Enabled() bool {
	return c.NatsURL != ""
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string        `mapstructure:"service_name" yaml:"service_name"`
	ServiceVersion string        `mapstructure:"service_version" yaml:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate" yaml:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string       `mapstructure:"format" yaml:"format"` // text, json
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout" yaml:"stdout"`
	File   FileLogConfig `mapstructure:"file" yaml:"file"`
	Loki   LokiConfig    `mapstructure:"loki" yaml:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`               // e.g. "logs/app.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}
