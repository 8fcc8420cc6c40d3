package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	BackendYAML   = "yaml"
	BackendSQLite = "sqlite"

	// DefaultLookAhead is the fraction of an event's period before its next
	// due time during which the standard view already lists it.
	DefaultLookAhead = 1.0 / 12
)

// TelegramConfig holds the chat transport settings.
type TelegramConfig struct {
	Token string `yaml:"token" env:"TOKEN"`
	// ChatID is the only chat the bot answers.
	ChatID int64 `yaml:"chat_id" env:"CHAT_ID"`
	// DigestIntervalHours posts a refreshed view every N hours when > 0.
	DigestIntervalHours int `yaml:"digest_interval_hours" env:"DIGEST_INTERVAL_HOURS"`
	// DigestAt posts a refreshed view daily at HH:MM when set.
	DigestAt string `yaml:"digest_at" env:"DIGEST_AT"`
}

// Config keeps runtime settings for the tracker.
type Config struct {
	StorePath string `yaml:"store_path" env:"TRACKER_STORE_PATH"`
	// Backend is "yaml" (default) or "sqlite".
	Backend string `yaml:"backend" env:"TRACKER_BACKEND"`
	// Timezone is the IANA zone recurrence rules are evaluated in.
	Timezone  string  `yaml:"timezone" env:"TRACKER_TIMEZONE"`
	LogLevel  string  `yaml:"log_level" env:"TRACKER_LOG_LEVEL"`
	LogFile   string  `yaml:"log_file" env:"TRACKER_LOG_FILE"`
	LookAhead float64 `yaml:"look_ahead" env:"TRACKER_LOOK_AHEAD"`

	Telegram TelegramConfig `yaml:"telegram" envPrefix:"TRACKER_TELEGRAM_"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		StorePath: "events.yaml",
		Backend:   BackendYAML,
		Timezone:  "Local",
		LogLevel:  "info",
		LogFile:   "tracker.log",
		LookAhead: DefaultLookAhead,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/eventtracker/config.yaml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "eventtracker", "config.yaml"), nil
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.StorePath == "" {
		c.StorePath = def.StorePath
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LookAhead <= 0 {
		c.LookAhead = def.LookAhead
	}
}

// Validate reports the first setting the tracker cannot run with.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendYAML, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.LookAhead > 1 {
		return fmt.Errorf("look_ahead %v is above 1", c.LookAhead)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Telegram.DigestAt != "" {
		if _, err := time.Parse("15:04", c.Telegram.DigestAt); err != nil {
			return fmt.Errorf("telegram.digest_at must be HH:MM: %w", err)
		}
	}
	if c.Telegram.DigestIntervalHours < 0 {
		return errors.New("telegram.digest_interval_hours is negative")
	}
	return nil
}

// Location resolves Timezone. "Local" means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DigestInterval is the bot digest period, zero when disabled.
func (c *Config) DigestInterval() time.Duration {
	if c.Telegram.DigestIntervalHours <= 0 {
		return 0
	}
	return time.Duration(c.Telegram.DigestIntervalHours) * time.Hour
}

// Load reads the YAML file at path, creating it with defaults on first run,
// then applies TRACKER_* environment overrides. Relative paths in the file
// are resolved against the directory of path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	if !filepath.IsAbs(c.StorePath) {
		c.StorePath = filepath.Join(base, c.StorePath)
	}
	if c.LogFile != "-" && !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(base, c.LogFile)
	}
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".eventtracker-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
