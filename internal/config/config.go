package config

import (
	"github.com/maxviazov/tayseer-service/internal/logger"
)

type Config struct {
	App      AppConfig           `mapstructure:"app"`
	Logger   logger.LoggerConfig `mapstructure:"logger"`
	Storage  StorageConfig       `mapstructure:"storage"`
	Postgres PostgresConfig      `mapstructure:"postgres"`
	Redis    RedisConfig         `mapstructure:"redis"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"min=1,max=65535"`
	// Timeouts in seconds.
	ReadTimeout     int `mapstructure:"read_timeout" validate:"min=1"`
	WriteTimeout    int `mapstructure:"write_timeout" validate:"min=1"`
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
	RequestTimeout  int `mapstructure:"request_timeout" validate:"min=1"`
}

// StorageConfig selects the backend every module persists through.
type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	SQLitePath string `mapstructure:"sqlite_path"`
	// Seed loads demo records on start when the customer collection is empty.
	Seed bool `mapstructure:"seed"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// TTL of cached records in seconds.
	TTL int `mapstructure:"ttl" validate:"min=1"`
	// RateLimit is the number of API requests a client IP may make per RateWindow seconds. 0 disables it.
	RateLimit  int `mapstructure:"rate_limit" validate:"min=0"`
	RateWindow int `mapstructure:"rate_window" validate:"min=1"`
}
