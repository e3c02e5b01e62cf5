// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultDebounce        = Duration(0)
	DefaultMessageTimespan = Duration(5 * time.Second)
	DefaultSweepInterval   = Duration(30 * time.Second)
	DefaultLogLevel        = "info"
	DefaultMaxPerAlign     = 5
	DefaultWidth           = 48
	DefaultAppName         = "noticeboard"
	DefaultRate            = 5.0
	DefaultBurst           = 3
	DefaultExpireTimeout   = Duration(-1 * time.Millisecond)
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NOTICEBOARD_"

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "250ms", "5s", "1m30s", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML and env parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '1m', '1h30m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the noticeboard configuration.
type Config struct {
	Container ContainerConfig `toml:"container" envPrefix:"CONTAINER_"`
	Log       LogConfig       `toml:"log" envPrefix:"LOG_"`
	UI        UIConfig        `toml:"ui" envPrefix:"UI_"`
	Desktop   DesktopConfig   `toml:"desktop" envPrefix:"DESKTOP_"`
}

// ContainerConfig holds notification container settings.
type ContainerConfig struct {
	Debounce        Duration `toml:"debounce" env:"DEBOUNCE"`                 // Observer batching delay (0 = immediate)
	MessageTimespan Duration `toml:"message_timespan" env:"MESSAGE_TIMESPAN"` // Default auto-dismiss for messages
	SweepInterval   Duration `toml:"sweep_interval" env:"SWEEP_INTERVAL"`     // How often the UI clears closed notices
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"` // debug, info, warn, error
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	MaxPerAlign int  `toml:"max_per_align" env:"MAX_PER_ALIGN"` // Messages shown per alignment (0 = unlimited)
	ShowIcons   bool `toml:"show_icons" env:"SHOW_ICONS"`
	Width       int  `toml:"width" env:"WIDTH"` // Card width in cells

	ClipboardCommand string `toml:"clipboard_command" env:"CLIPBOARD_COMMAND"` // Auto-detected if empty
}

// DesktopConfig holds settings for the freedesktop notification bridge.
type DesktopConfig struct {
	Enabled       bool     `toml:"enabled" env:"ENABLED"`
	AppName       string   `toml:"app_name" env:"APP_NAME"`
	Rate          float64  `toml:"rate" env:"RATE"`                     // Notify calls per second
	Burst         int      `toml:"burst" env:"BURST"`                   // Calls allowed in a burst
	ExpireTimeout Duration `toml:"expire_timeout" env:"EXPIRE_TIMEOUT"` // Negative = server default
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Container: ContainerConfig{
			Debounce:        DefaultDebounce,
			MessageTimespan: DefaultMessageTimespan,
			SweepInterval:   DefaultSweepInterval,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		UI: UIConfig{
			MaxPerAlign: DefaultMaxPerAlign,
			ShowIcons:   true,
			Width:       DefaultWidth,
		},
		Desktop: DesktopConfig{
			Enabled:       false,
			AppName:       DefaultAppName,
			Rate:          DefaultRate,
			Burst:         DefaultBurst,
			ExpireTimeout: DefaultExpireTimeout,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "noticeboard", "config.toml")
}

// LoadConfig loads configuration from the specified path, then applies
// environment overrides (a .env file in the working directory is honoured).
// If path is empty, uses the default config path.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	// The .env file is optional.
	_ = godotenv.Load()

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile reads the TOML file over the defaults without env overrides.
func loadFile(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays NOTICEBOARD_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks that values are within their allowed ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Container.Debounce < 0 {
		errs = append(errs, fmt.Errorf("container.debounce must not be negative"))
	}
	if c.Container.MessageTimespan < 0 {
		errs = append(errs, fmt.Errorf("container.message_timespan must not be negative"))
	}
	if c.Container.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("container.sweep_interval must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.UI.MaxPerAlign < 0 {
		errs = append(errs, fmt.Errorf("ui.max_per_align must not be negative"))
	}
	if c.UI.Width < 0 {
		errs = append(errs, fmt.Errorf("ui.width must not be negative"))
	}
	if c.Desktop.Rate < 0 {
		errs = append(errs, fmt.Errorf("desktop.rate must not be negative"))
	}
	if c.Desktop.Burst < 0 {
		errs = append(errs, fmt.Errorf("desktop.burst must not be negative"))
	}

	return errors.Join(errs...)
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q must be one of debug, info, warn, error", level)
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
