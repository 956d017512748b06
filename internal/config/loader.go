package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaults doubles as the key registry: viper only resolves APP_* overrides for keys it knows.
var defaults = map[string]any{
	"app.name":             "tayseer-service",
	"app.version":          "0.1.0",
	"app.env":              "dev",
	"app.port":             8080,
	"app.read_timeout":     10,
	"app.write_timeout":    15,
	"app.shutdown_timeout": 10,
	"app.request_timeout":  5,

	"logger.level":         "",
	"logger.format":        "",
	"logger.output_target": "",
	"logger.time_field":    "",
	"logger.time_format":   "",
	"logger.env":           "",
	"logger.with_caller":   false,
	"logger.stacktrace":    false,
	"logger.service_name":  "tayseer-service",
	"logger.debug_file":    "logs/debug.log",

	"storage.driver":      "memory",
	"storage.sqlite_path": "data/tayseer.db",
	"storage.seed":        false,

	"postgres.host":                "localhost",
	"postgres.port":                5432,
	"postgres.user":                "",
	"postgres.password":            "",
	"postgres.db":                  "",
	"postgres.sslmode":             "disable",
	"postgres.max_conns":           10,
	"postgres.min_conns":           1,
	"postgres.max_conn_lifetime":   3600,
	"postgres.max_conn_idle_time":  300,
	"postgres.health_check_period": 60,

	"redis.enabled":     false,
	"redis.addr":        "localhost:6379",
	"redis.password":    "",
	"redis.db":          0,
	"redis.ttl":         300,
	"redis.rate_limit":  0,
	"redis.rate_window": 60,
}

// Load reads the YAML file at path, applies APP_* environment overrides (an optional .env in the
// working directory is loaded first) and validates the result.
func Load(path string) (*Config, error) {
	// .env is a convenience for local runs; its absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	// Logger validates itself after applying its own defaults in logger.New.
	if err := validator.New().StructExcept(c, "Logger"); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	switch c.Storage.Driver {
	case "postgres":
		var missing []string
		if c.Postgres.User == "" {
			missing = append(missing, "APP_POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "APP_POSTGRES_PASSWORD")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "APP_POSTGRES_DB")
		}
		if len(missing) > 0 {
			return fmt.Errorf("postgres driver requires %s", strings.Join(missing, ", "))
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("sqlite driver requires storage.sqlite_path")
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis cache enabled without redis.addr")
	}
	return nil
}
