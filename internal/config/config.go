package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	customerrors "github.com/axellelanca/trackit/internal/errors"
)

// Config represents the main structure mapping the entire application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Report   ReportConfig   `mapstructure:"report"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and locates the visit store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Name   string `mapstructure:"name"`   // sqlite file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

// TrackingConfig drives visit ingestion and the defaults written on activation.
type TrackingConfig struct {
	DefaultRoles            []string      `mapstructure:"default_roles"`
	DefaultEraseOnUninstall bool          `mapstructure:"default_erase_on_uninstall"`
	AvailableRoles          []string      `mapstructure:"available_roles"`
	RecordTimeout           time.Duration `mapstructure:"record_timeout"`
	BufferSize              int           `mapstructure:"buffer_size"`
	WorkerCount             int           `mapstructure:"worker_count"`
	SkipBots                bool          `mapstructure:"skip_bots"`
}

// ReportConfig drives the admin listing.
type ReportConfig struct {
	PageSize int    `mapstructure:"page_size"`
	Timezone string `mapstructure:"timezone"`
}

// MonitorConfig drives the periodic store health probe.
type MonitorConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LoadConfig loads the application configuration from ./configs/config.yaml,
// environment variables (server.port -> SERVER_PORT) and defaults.
func LoadConfig() (*Config, error) {
	return Load(viper.New(), "./configs")
}

// Load reads configuration into a Config using v, searching configDir for config.yaml.
// A missing file is not an error.
func Load(v *viper.Viper, configDir string) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, customerrors.ErrConfigLoad{Dir: configDir, Err: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, customerrors.ErrConfigLoad{Dir: configDir, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults registers a default for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.name", "trackit.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("tracking.default_roles", []string{})
	v.SetDefault("tracking.default_erase_on_uninstall", false)
	v.SetDefault("tracking.available_roles", []string{"administrator", "editor", "author", "contributor", "subscriber"})
	v.SetDefault("tracking.record_timeout", 2*time.Second)
	v.SetDefault("tracking.buffer_size", 1000)
	v.SetDefault("tracking.worker_count", 0)
	v.SetDefault("tracking.skip_bots", false)
	v.SetDefault("report.page_size", 25)
	v.SetDefault("report.timezone", "Local")
	v.SetDefault("monitor.interval_minutes", 5)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Name == "" {
			return errors.New("database.name: is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn: is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver: unsupported value %q", c.Database.Driver)
	}
	if c.Tracking.RecordTimeout <= 0 {
		return errors.New("tracking.record_timeout: must be positive")
	}
	if c.Tracking.WorkerCount > 0 && c.Tracking.BufferSize <= 0 {
		return errors.New("tracking.buffer_size: must be positive when workers are enabled")
	}
	if c.Report.PageSize <= 0 {
		return errors.New("report.page_size: must be positive")
	}
	if _, err := c.Report.Location(); err != nil {
		return fmt.Errorf("report.timezone: %w", err)
	}
	return nil
}

// Location resolves the report timezone.
func (r ReportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}
