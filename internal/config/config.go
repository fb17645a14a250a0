package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig возвращается при некорректных значениях конфигурации
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса (config.toml)
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	Payments       PaymentsConfig    `toml:"payments"`
	Stripe         StripeConfig      `toml:"stripe"`
	NATS           NATSConfig        `toml:"nats"`
	Redis          RedisConfig       `toml:"redis"`
	Sweeper        SweeperConfig     `toml:"sweeper"`
	StudentService IntegrationConfig `toml:"student_service"`
	CatalogService IntegrationConfig `toml:"catalog_service"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	User                string `toml:"user"`
	Password            string `toml:"password"`
	DBName              string `toml:"dbname"`
	SSLMode             string `toml:"sslmode"`
	MaxOpenConns        int    `toml:"max_open_conns"`
	MaxIdleConns        int    `toml:"max_idle_conns"`
	ConnMaxLifetime     int    `toml:"conn_max_lifetime"`
	SerializableRetries int    `toml:"serializable_retries"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// PaymentsConfig параметры платёжного удержания
type PaymentsConfig struct {
	HoldMinutes      int    `toml:"hold_minutes"`
	OverdueAfterDays int    `toml:"overdue_after_days"`
	Currency         string `toml:"currency"`
}

type StripeConfig struct {
	Enabled       bool   `toml:"enabled"`
	SecretKey     string `toml:"secret_key"`
	WebhookSecret string `toml:"webhook_secret"`
	SuccessURL    string `toml:"success_url"`
	CancelURL     string `toml:"cancel_url"`
}

type NATSConfig struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// SweeperConfig расписание фоновых задач (формат robfig/cron, например "@every 30s")
type SweeperConfig struct {
	Enabled         bool   `toml:"enabled"`
	HoldsSchedule   string `toml:"holds_schedule"`
	OverdueSchedule string `toml:"overdue_schedule"`
	OutboxSchedule  string `toml:"outbox_schedule"`
	BatchSize       int    `toml:"batch_size"`
	LockTTLSeconds  int    `toml:"lock_ttl_seconds"`
}

type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// Load читает конфигурацию из toml файла, заполняет значения по умолчанию и валидирует
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Database.SerializableRetries == 0 {
		c.Database.SerializableRetries = 3
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "driving_school_service"
	}
	if c.Payments.HoldMinutes == 0 {
		c.Payments.HoldMinutes = 120
	}
	if c.Payments.OverdueAfterDays == 0 {
		c.Payments.OverdueAfterDays = 14
	}
	if c.Payments.Currency == "" {
		c.Payments.Currency = "EUR"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "driving_school"
	}
	if c.Sweeper.HoldsSchedule == "" {
		c.Sweeper.HoldsSchedule = "@every 30s"
	}
	if c.Sweeper.OverdueSchedule == "" {
		c.Sweeper.OverdueSchedule = "@every 1h"
	}
	if c.Sweeper.OutboxSchedule == "" {
		c.Sweeper.OutboxSchedule = "@every 5s"
	}
	if c.Sweeper.BatchSize == 0 {
		c.Sweeper.BatchSize = 100
	}
	if c.Sweeper.LockTTLSeconds == 0 {
		c.Sweeper.LockTTLSeconds = 60
	}
	if c.StudentService.Timeout == 0 {
		c.StudentService.Timeout = 5
	}
	if c.CatalogService.Timeout == 0 {
		c.CatalogService.Timeout = 5
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database host and dbname are required", ErrInvalidConfig)
	}
	if c.Payments.HoldMinutes < 0 {
		return fmt.Errorf("%w: payments.hold_minutes must be positive", ErrInvalidConfig)
	}
	if c.Stripe.Enabled && (c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "") {
		return fmt.Errorf("%w: stripe secret_key and webhook_secret are required when stripe is enabled", ErrInvalidConfig)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats.url is required when nats is enabled", ErrInvalidConfig)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}
	if c.StudentService.URL == "" || c.CatalogService.URL == "" {
		return fmt.Errorf("%w: student_service.url and catalog_service.url are required", ErrInvalidConfig)
	}
	return nil
}
