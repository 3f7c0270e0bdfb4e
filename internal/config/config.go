// Package config provides configuration management for commitwatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xvierd/commitwatch/internal/domain"
)

// Notification persistence modes.
const (
	PersistenceAutoDismiss = "auto-dismiss"
	PersistencePersistent  = "persistent"
)

// Config holds all configuration for commitwatch.
type Config struct {
	CheckInterval int                `mapstructure:"check_interval"`
	Strategy      string             `mapstructure:"strategy"`
	Remote        string             `mapstructure:"remote"`
	Branch        string             `mapstructure:"branch"`
	Timeout       Duration           `mapstructure:"timeout"`
	GitHub        GitHubConfig       `mapstructure:"github"`
	Bitbucket     BitbucketConfig    `mapstructure:"bitbucket"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Log           LogConfig          `mapstructure:"log"`
}

// GitHubConfig holds GitHub API settings.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// BitbucketConfig holds Bitbucket API settings. Both fields must be set for
// authenticated requests; otherwise requests are anonymous.
type BitbucketConfig struct {
	Username    string `mapstructure:"username"`
	AppPassword string `mapstructure:"app_password"`
	BaseURL     string `mapstructure:"base_url"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Sound       bool   `mapstructure:"sound"`
	Persistence string `mapstructure:"persistence"`
}

// IsPersistent returns true if alerts require explicit dismissal.
func (n NotificationConfig) IsPersistent() bool {
	return n.Persistence == PersistencePersistent
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CheckInterval: 30,
		Strategy:      string(domain.StrategyLocalFetch),
		Remote:        "origin",
		Timeout:       Duration(20 * time.Second),
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
		},
		Bitbucket: BitbucketConfig{
			BaseURL: "https://api.bitbucket.org",
		},
		Notifications: NotificationConfig{
			Enabled:     true,
			Sound:       false,
			Persistence: PersistencePersistent,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Interval returns the poll period.
func (c *Config) Interval() time.Duration {
	if c.CheckInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CheckInterval) * time.Second
}

// CommandTimeout returns the bound applied to git commands and API requests.
func (c *Config) CommandTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.Timeout)
}

// Validate checks option values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if _, err := domain.ValidateStrategy(c.Strategy); err != nil {
		return err
	}
	switch c.Notifications.Persistence {
	case PersistenceAutoDismiss, PersistencePersistent, "":
	default:
		return fmt.Errorf("invalid notifications.persistence %q (expected %q or %q)",
			c.Notifications.Persistence, PersistenceAutoDismiss, PersistencePersistent)
	}
	if c.CheckInterval < 0 {
		return fmt.Errorf("check_interval must be positive, got %d", c.CheckInterval)
	}
	for key, value := range map[string]string{"remote": c.Remote, "branch": c.Branch} {
		if value == "" {
			continue
		}
		if err := domain.ValidateRef(value); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// Loader reads configuration through a dedicated viper instance so that
// file watching does not leak between commands or tests.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader creates a loader for the config file at path. An empty path
// selects the default location.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("COMMITWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return &Loader{v: v, path: path}, nil
}

// Path returns the config file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the config file, creating it with defaults if missing.
func (l *Loader) Load() (*Config, error) {
	configDir := filepath.Dir(l.path)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		if err := l.Save(DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return decode(l.v)
}

// Save writes cfg to the config file.
func (l *Loader) Save(cfg *Config) error {
	configDir := filepath.Dir(l.path)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// A separate instance keeps explicit Set overrides out of l.v, which
	// must keep reflecting the file for Watch.
	w := viper.New()
	w.SetConfigType("toml")
	w.Set("check_interval", cfg.CheckInterval)
	w.Set("strategy", cfg.Strategy)
	w.Set("remote", cfg.Remote)
	w.Set("branch", cfg.Branch)
	w.Set("timeout", cfg.Timeout.String())
	w.Set("github.token", cfg.GitHub.Token)
	w.Set("github.base_url", cfg.GitHub.BaseURL)
	w.Set("bitbucket.username", cfg.Bitbucket.Username)
	w.Set("bitbucket.app_password", cfg.Bitbucket.AppPassword)
	w.Set("bitbucket.base_url", cfg.Bitbucket.BaseURL)
	w.Set("notifications.enabled", cfg.Notifications.Enabled)
	w.Set("notifications.sound", cfg.Notifications.Sound)
	w.Set("notifications.persistence", cfg.Notifications.Persistence)
	w.Set("log.level", cfg.Log.Level)
	w.Set("log.file", cfg.Log.File)

	return w.WriteConfigAs(l.path)
}

// Set updates a single key and persists the file.
func (l *Loader) Set(key string, value any) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	w := viper.New()
	w.SetConfigFile(l.path)
	w.SetConfigType("toml")
	setDefaults(w)
	if _, err := os.Stat(l.path); err == nil {
		if err := w.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	w.Set(key, value)

	cfg, err := decode(w)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := l.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return l.v.ReadInConfig()
}

// Watch calls onChange with the re-read configuration every time the config
// file changes on disk.
func (l *Loader) Watch(onChange func(*Config, error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		onChange(decode(l.v))
	})
	l.v.WatchConfig()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".commitwatch", "config.toml"), nil
}

// knownKeys lists every settable key with its default.
var knownKeys = map[string]any{
	"check_interval":            30,
	"strategy":                  string(domain.StrategyLocalFetch),
	"remote":                    "origin",
	"branch":                    "",
	"timeout":                   "20s",
	"github.token":              "",
	"github.base_url":           "https://api.github.com",
	"bitbucket.username":        "",
	"bitbucket.app_password":    "",
	"bitbucket.base_url":        "https://api.bitbucket.org",
	"notifications.enabled":     true,
	"notifications.sound":       false,
	"notifications.persistence": PersistencePersistent,
	"log.level":                 "info",
	"log.file":                  "",
}

func isKnownKey(key string) bool {
	_, ok := knownKeys[key]
	return ok
}

// KnownKeys returns the settable keys.
func KnownKeys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	return keys
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	for key, value := range knownKeys {
		v.SetDefault(key, value)
	}
}
