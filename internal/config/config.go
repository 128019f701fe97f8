// Package config loads service configuration from defaults, an optional file, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	KV        KVConfig        `mapstructure:"kv"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// AppConfig holds application-wide settings
type AppConfig struct {
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MongoConfig holds MongoDB configuration
type MongoConfig struct {
	URI      string        `mapstructure:"uri" validate:"required"`
	Database string        `mapstructure:"database" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// KVConfig selects where settings, the ledger and the last check time are kept
type KVConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory sqlite redis"`
	SQLitePath string `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// MQTTConfig holds the notification broker configuration. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

// JWTConfig holds token configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret" validate:"required"`
	ExpiresIn time.Duration `mapstructure:"expires_in" validate:"gt=0"`
}

// SchedulerConfig controls the periodic sweep in serve mode
type SchedulerConfig struct {
	Spec         string        `mapstructure:"spec" validate:"required"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// RateLimitConfig holds per-client API rate limits
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"min=1"`
}

var validate = validator.New()

// Load reads configuration. path is an optional config file (yaml, json or toml).
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	bindEnvVars(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.timezone", "Local")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "fleet")
	v.SetDefault("mongo.timeout", "10s")

	v.SetDefault("kv.backend", "sqlite")
	v.SetDefault("kv.sqlite_path", "maintenance-state.db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "fleet:")

	v.SetDefault("mqtt.client_id", "fleet-maintenance")
	v.SetDefault("mqtt.topic_prefix", "maintenance/notifications")

	v.SetDefault("jwt.secret", "default-secret-key-change-in-production")
	v.SetDefault("jwt.expires_in", "24h")

	v.SetDefault("scheduler.spec", "@every 1m")
	v.SetDefault("scheduler.query_timeout", "10s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("rate_limit.rps", 5)
	v.SetDefault("rate_limit.burst", 20)
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("app.timezone", "TZ_NAME")

	_ = v.BindEnv("server.port", "PORT")

	_ = v.BindEnv("mongo.uri", "MONGO_URI")
	_ = v.BindEnv("mongo.database", "MONGO_DATABASE")

	_ = v.BindEnv("kv.backend", "KV_BACKEND")
	_ = v.BindEnv("kv.sqlite_path", "KV_SQLITE_PATH")

	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("mqtt.broker", "MQTT_BROKER")
	_ = v.BindEnv("mqtt.client_id", "MQTT_CLIENT_ID")

	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expires_in", "JWT_EXPIRY")

	_ = v.BindEnv("scheduler.spec", "SCHEDULER_SPEC")

	_ = v.BindEnv("logger.level", "LOG_LEVEL")
	_ = v.BindEnv("logger.format", "LOG_FORMAT")
}

// Validate checks field ranges, the timezone and the cron spec.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := cron.Parse(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", c.Scheduler.Spec, err)
	}
	if c.KV.Backend == "redis" && c.Redis.Addr == "" {
		return errors.New("redis address is required for the redis backend")
	}
	return nil
}

// Location resolves the timezone that defines calendar days.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
