/*
config.go - Server and CLI configuration

PURPOSE:
  One typed Config for every winning command, loaded with viper from
  (lowest to highest precedence):
  1. Built-in defaults
  2. winning.yaml (current directory, or --config)
  3. WINNING_* environment variables (WINNING_DB, WINNING_LOG_LEVEL, ...)
  4. Command-line flags bound by the caller

KEYS:
  port                 HTTP port (8080)
  db                   SQLite path, ":memory:" for a throwaway store (winning.db)
  timezone             IANA zone that decides "today" (Local)
  first_weekday        First column of month grids: sunday | monday (sunday)
  allowed_origins      CORS origins of the browser client
  reconcile_interval   Win reconciliation period, 0 disables (1h)
  log_level            debug | info | warn | error (info)
  top_outcomes_array   Store week review top outcomes as an array column (false)
  demo                 Serve /api/scenarios, which can wipe the database (false)
  admin_users          User ids allowed on /api/admin (none)
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/winning-app/winning/period"
)

// Config holds the settings shared by all commands.
type Config struct {
	Port              int           `mapstructure:"port"`
	DBPath            string        `mapstructure:"db"`
	Timezone          string        `mapstructure:"timezone"`
	FirstWeekday      string        `mapstructure:"first_weekday"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	LogLevel          string        `mapstructure:"log_level"`
	TopOutcomesArray  bool          `mapstructure:"top_outcomes_array"`
	Demo              bool          `mapstructure:"demo"`
	AdminUsers        []string      `mapstructure:"admin_users"`
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WINNING"

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Port:              8080,
		DBPath:            "winning.db",
		Timezone:          "Local",
		FirstWeekday:      "sunday",
		AllowedOrigins:    []string{"http://localhost:5173", "http://localhost:8080"},
		ReconcileInterval: time.Hour,
		LogLevel:          "info",
	}
}

// SetDefaults registers Default() on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("db", d.DBPath)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("first_weekday", d.FirstWeekday)
	v.SetDefault("allowed_origins", d.AllowedOrigins)
	v.SetDefault("reconcile_interval", d.ReconcileInterval)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("top_outcomes_array", d.TopOutcomesArray)
	v.SetDefault("demo", d.Demo)
	v.SetDefault("admin_users", d.AdminUsers)
}

// Load reads configuration into a Config. An empty path searches for
// winning.yaml in the working directory and tolerates its absence; an
// explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("winning")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Weekday(); err != nil {
		return err
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile_interval must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Weekday resolves FirstWeekday.
func (c *Config) Weekday() (time.Weekday, error) {
	switch strings.ToLower(c.FirstWeekday) {
	case "", "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	}
	return 0, fmt.Errorf("invalid first_weekday: %s (must be sunday or monday)", c.FirstWeekday)
}

// Calendar builds the period calendar for this configuration.
func (c *Config) Calendar() (*period.Calendar, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	first, err := c.Weekday()
	if err != nil {
		return nil, err
	}
	cal := period.NewCalendar(loc)
	cal.FirstWeekday = first
	return cal, nil
}

// Logger builds a production zap logger at LogLevel.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if level == zapcore.DebugLevel {
		zc.Development = true
	}
	return zc.Build()
}
