package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/vocabdrill/internal/database"
	"github.com/example/vocabdrill/internal/scheduler"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/pkg/models"
)

// Config represents the configuration of the application
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Reminders  RemindersConfig  `yaml:"reminders"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	LogLevel   string           `yaml:"log_level"`
}

type DatabaseConfig struct {
	// Disabled runs without persistence
	Disabled bool   `yaml:"disabled"`
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type RemindersConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	StartHour int           `yaml:"start_hour"`
	EndHour   int           `yaml:"end_hour"`
}

type SchedulingConfig struct {
	// "always" or "on_pass"
	EFUpdateRule string `yaml:"ef_update_rule"`
	// Longest interval in days, 0 for the built-in ceiling
	MaxIntervalDays int `yaml:"max_interval_days"`
}

// Options tells Load where to look
type Options struct {
	File    string // YAML config file, optional
	EnvFile string // dotenv file, ignored when missing
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   database.DefaultPath,
		},
		Reminders: RemindersConfig{
			Enabled:   true,
			Interval:  scheduler.DefaultInterval,
			StartHour: scheduler.DefaultNotificationStartHour,
			EndHour:   scheduler.DefaultNotificationEndHour,
		},
		Scheduling: SchedulingConfig{EFUpdateRule: spaced_repetition.EFUpdateAlways.String()},
		LogLevel:   "info",
	}
}

// Load builds the configuration from defaults, the YAML file, the dotenv
// file and the environment, later sources taking precedence
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", opts.File, err)
		}
	}

	dotenv := map[string]string{}
	if opts.EnvFile != "" {
		values, err := godotenv.Read(opts.EnvFile)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read env file %s: %w", opts.EnvFile, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	str("DB_TYPE", &c.Database.Driver)
	str("DB_PATH", &c.Database.Path)
	str("DATABASE_URL", &c.Database.DSN)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("EF_UPDATE_RULE", &c.Scheduling.EFUpdateRule)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		c.Telegram.ChatID = id
	}
	if v, ok := lookup("REMINDER_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid REMINDER_INTERVAL %q: %w", v, err)
		}
		c.Reminders.Interval = d
	}
	if v, ok := lookup("ENABLE_SCHEDULER"); ok && v != "" {
		c.Reminders.Enabled = v != "false"
	}
	if err := integer("NOTIFICATION_START_HOUR", &c.Reminders.StartHour); err != nil {
		return err
	}
	if err := integer("MAX_INTERVAL_DAYS", &c.Scheduling.MaxIntervalDays); err != nil {
		return err
	}
	return integer("NOTIFICATION_END_HOUR", &c.Reminders.EndHour)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Reminders.StartHour < 0 || c.Reminders.StartHour > 23 {
		return fmt.Errorf("notification start hour %d out of range 0-23", c.Reminders.StartHour)
	}
	if c.Reminders.EndHour < 0 || c.Reminders.EndHour > 23 {
		return fmt.Errorf("notification end hour %d out of range 0-23", c.Reminders.EndHour)
	}
	if c.Reminders.Interval <= 0 {
		return fmt.Errorf("reminder interval must be positive, got %s", c.Reminders.Interval)
	}
	if c.Scheduling.MaxIntervalDays < 0 || c.Scheduling.MaxIntervalDays > models.MaxIntervalDays {
		return fmt.Errorf("max interval %d out of range 0-%d days", c.Scheduling.MaxIntervalDays, models.MaxIntervalDays)
	}
	if _, err := c.EFUpdateRule(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// EFUpdateRule returns the parsed easiness factor update rule
func (c *Config) EFUpdateRule() (spaced_repetition.EFUpdateRule, error) {
	return spaced_repetition.ParseEFUpdateRule(c.Scheduling.EFUpdateRule)
}

// Algorithm returns the SM-2 settings described by the configuration
func (c *Config) Algorithm() (*spaced_repetition.SM2, error) {
	rule, err := c.EFUpdateRule()
	if err != nil {
		return nil, err
	}
	algo := spaced_repetition.NewSM2()
	algo.EFUpdate = rule
	algo.MaxInterval = c.Scheduling.MaxIntervalDays
	return algo, nil
}

// Level returns the parsed log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// StoreConfig returns the database settings for database.Open
func (c *Config) StoreConfig(logger *slog.Logger) database.Config {
	return database.Config{
		Driver: c.Database.Driver,
		Path:   c.Database.Path,
		DSN:    c.Database.DSN,
		Logger: logger,
	}
}

// SchedulerConfig returns the reminder settings for scheduler.New
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		Interval:  c.Reminders.Interval,
		StartHour: c.Reminders.StartHour,
		EndHour:   c.Reminders.EndHour,
		Location:  time.Local,
	}
}
