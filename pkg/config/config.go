// Package config loads TOML configuration with environment variable
// overrides via viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/casadecor/backoffice/pkg/logging"
)

// Config is the full service configuration.
type Config struct {
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
	// Environment: dev, staging, prod.
	Environment string `mapstructure:"environment"`
	// NodeID seeds the snowflake id generator; must differ per instance.
	NodeID int64 `mapstructure:"node_id"`

	HTTP           HTTPConfig           `mapstructure:"http"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Logger         logging.Config       `mapstructure:"logger"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
}

// HTTPConfig configures the gin server.
type HTTPConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig configures the MySQL connection pool.
type DatabaseConfig struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    int    `mapstructure:"conn_max_lifetime"`
	LogEnabled         bool   `mapstructure:"log_enabled"`
	SlowQueryThreshold int    `mapstructure:"slow_query_threshold"`
}

// KafkaConfig configures the event publisher. Disabled when no brokers are
// listed.
type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ReconciliationConfig carries the engine's business constants.
type ReconciliationConfig struct {
	// Scoring thresholds, weights, date window and partial payment
	// fractions; see domain.ScoringConfig.
	NameWeight        float64   `mapstructure:"name_weight"`
	ValueWeight       float64   `mapstructure:"value_weight"`
	DateWeight        float64   `mapstructure:"date_weight"`
	HighThreshold     float64   `mapstructure:"high_threshold"`
	MediumThreshold   float64   `mapstructure:"medium_threshold"`
	MinAcceptScore    float64   `mapstructure:"min_accept_score"`
	MaxDateWindowDays int       `mapstructure:"max_date_window_days"`
	PartialFractions  []float64 `mapstructure:"partial_fractions"`
	ValueTolerance    float64   `mapstructure:"value_tolerance"`

	// LinkTimeout bounds one link operation, in milliseconds.
	LinkTimeout int `mapstructure:"link_timeout"`
	// LinkMaxRetries bounds optimistic-lock retries per link.
	LinkMaxRetries int `mapstructure:"link_max_retries"`

	// BatchCron schedules unattended auto reconciliation; empty disables it.
	BatchCron string `mapstructure:"batch_cron"`
	// BatchTenants lists the tenants the scheduled run covers.
	BatchTenants []string `mapstructure:"batch_tenants"`
}

// Load reads the TOML file at path, applying BACKOFFICE_* environment
// overrides (dots become underscores: database.dsn -> BACKOFFICE_DATABASE_DSN).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "reconciliation")
	v.SetDefault("environment", "dev")
	v.SetDefault("node_id", 1)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("kafka.max_retries", 3)
	v.SetDefault("kafka.retry_backoff", 100)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/reconciliation.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("reconciliation.name_weight", 0.5)
	v.SetDefault("reconciliation.value_weight", 0.3)
	v.SetDefault("reconciliation.date_weight", 0.2)
	v.SetDefault("reconciliation.high_threshold", 70.0)
	v.SetDefault("reconciliation.medium_threshold", 50.0)
	v.SetDefault("reconciliation.min_accept_score", 40.0)
	v.SetDefault("reconciliation.max_date_window_days", 90)
	v.SetDefault("reconciliation.partial_fractions", []float64{0.4, 0.5, 0.6, 1.0})
	v.SetDefault("reconciliation.value_tolerance", 0.25)
	v.SetDefault("reconciliation.link_timeout", 5000)
	v.SetDefault("reconciliation.link_max_retries", 3)
}
