package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config stores all configuration for the service
type Config struct {
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	StorageDriver    string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	RunMigrations    bool          `mapstructure:"RUN_MIGRATIONS"`
	KafkaBrokers     []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopicPrefix string        `mapstructure:"KAFKA_TOPIC_PREFIX"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"SERVER_PORT",
	"STORAGE_DRIVER",
	"DATABASE_URL",
	"RUN_MIGRATIONS",
	"KAFKA_BROKERS",
	"KAFKA_TOPIC_PREFIX",
	"LOG_LEVEL",
	"SHUTDOWN_TIMEOUT",
}

// Load reads configuration from a .env file in path (if present) and the environment.
// Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("KAFKA_TOPIC_PREFIX", "ledger.")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitBrokers(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// splitBrokers accepts both "a,b" and ["a", "b"] forms
func splitBrokers(raw []string) []string {
	brokers := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, broker := range strings.Split(item, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				brokers = append(brokers, broker)
			}
		}
	}
	return brokers
}
