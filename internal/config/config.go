// Package config provides configuration management for the captable CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/simaogato/captable-backend/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig    `mapstructure:"database"`
	Log        logging.LogConfig `mapstructure:"log"`
	Simulation SimulationConfig  `mapstructure:"simulation"`
	Output     OutputConfig      `mapstructure:"output"`
}

// DatabaseConfig holds the PostgreSQL connection settings.
// URL wins over the individual fields when set.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// SimulationConfig holds the round simulation conventions.
type SimulationConfig struct {
	BaselineShares      int64  `mapstructure:"baseline_shares"`
	DefaultInvestorName string `mapstructure:"default_investor_name"`
	OptionPoolName      string `mapstructure:"option_pool_name"`
	MaxScenarios        int    `mapstructure:"max_scenarios"`
}

// OutputConfig holds command output settings.
type OutputConfig struct {
	Currency string `mapstructure:"currency"` // ISO 4217 code used to render amounts
}

// ErrMissingDatabase is returned when a command needs a database and none is configured
var ErrMissingDatabase = errors.New("database connection is not configured")

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/captable"
	}
	return filepath.Join(home, ".config", "captable")
}

func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultLogConfig()

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "captable")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.console", logDefaults.Console)
	v.SetDefault("log.file", logDefaults.File)
	v.SetDefault("log.file_path", logDefaults.FilePath)
	v.SetDefault("log.max_size", logDefaults.MaxSize)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.max_age", logDefaults.MaxAge)

	v.SetDefault("simulation.baseline_shares", 1_000_000)
	v.SetDefault("simulation.default_investor_name", "Novo Investidor")
	v.SetDefault("simulation.option_pool_name", "Pool de Opções")
	v.SetDefault("simulation.max_scenarios", 5)

	v.SetDefault("output.currency", "BRL")
}

// bindLegacyEnv keeps the DB_* variables of the container setup working
// behind their CAPTABLE_* equivalents.
func bindLegacyEnv(v *viper.Viper) error {
	legacy := map[string]string{
		"database.url":      "DB_CONN_STR",
		"database.host":     "DB_HOST",
		"database.port":     "DB_PORT",
		"database.user":     "DB_USER",
		"database.password": "DB_PASSWORD",
		"database.name":     "DB_NAME",
	}
	for key, env := range legacy {
		primary := "CAPTABLE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, primary, env); err != nil {
			return err
		}
	}
	return nil
}

// Load reads captable.yaml from configDir (optional) and applies CAPTABLE_* environment overrides.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("captable")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("CAPTABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return nil, fmt.Errorf("binding environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading captable.yaml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Simulation.BaselineShares <= 0 {
		return fmt.Errorf("simulation.baseline_shares must be positive")
	}
	if c.Simulation.MaxScenarios <= 0 {
		return fmt.Errorf("simulation.max_scenarios must be positive")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("database.max_open_conns cannot be negative")
	}
	if c.Output.Currency == "" {
		return fmt.Errorf("output.currency cannot be empty")
	}
	if c.Log.File && c.Log.FilePath == "" {
		return fmt.Errorf("log.file_path is required when file logging is enabled")
	}
	return nil
}

// ValidateDatabase checks that a connection can be built; only commands touching the store call it
func (c *Config) ValidateDatabase() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return ErrMissingDatabase
	}
	return nil
}

// DSN returns the connection string for lib/pq
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
	}
	return u.String()
}
