package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Prefs    PrefsConfig    `mapstructure:"prefs"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Demo     DemoConfig     `mapstructure:"demo"`
}

// DatabaseConfig holds sqlite cache settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
	// DestructiveFallback rebuilds the cache when it cannot be migrated.
	DestructiveFallback bool `mapstructure:"destructive_fallback"`
}

// PrefsConfig locates the key-value preference file.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig locates the log file. The terminal belongs to the TUI.
type LogConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat   string `mapstructure:"date_format"`
	ToastSeconds int    `mapstructure:"toast_seconds"`
	FeedCount    int    `mapstructure:"feed_count"`
}

// FeedConfig points at a saved feed response to cache on startup.
type FeedConfig struct {
	ImportPath string `mapstructure:"import_path"`
}

// DemoConfig controls seeding of an empty cache.
type DemoConfig struct {
	Seed bool `mapstructure:"seed"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "croissant")
}

func configPath() string {
	if p := os.Getenv("CROISSANT_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "croissant", "config.toml")
}

// Load reads configuration from .env, file and env. Env var overrides use prefix CROISSANT_.
func Load() (Config, error) {
	// a .env in the working directory never overrides the real environment
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("database.path", filepath.Join(dataDir(), "croissant.db"))
	v.SetDefault("database.destructive_fallback", true)
	v.SetDefault("prefs.path", filepath.Join(dataDir(), "prefs.json"))
	v.SetDefault("log.path", filepath.Join(dataDir(), "croissant.log"))
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.toast_seconds", 2)
	v.SetDefault("ui.feed_count", 10)
	v.SetDefault("feed.import_path", "")
	v.SetDefault("demo.seed", false)

	path := configPath()
	v.SetConfigType("toml")
	v.SetConfigFile(path)

	v.SetEnvPrefix("CROISSANT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// the config file is optional, but a present one must parse
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.UI.ToastSeconds <= 0 {
		c.UI.ToastSeconds = 2
	}
	return c, nil
}

// Save writes cfg to the config file, creating the config directory if needed.
func Save(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.destructive_fallback", cfg.Database.DestructiveFallback)
	v.Set("prefs.path", cfg.Prefs.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.toast_seconds", cfg.UI.ToastSeconds)
	v.Set("ui.feed_count", cfg.UI.FeedCount)
	v.Set("feed.import_path", cfg.Feed.ImportPath)
	v.Set("demo.seed", cfg.Demo.Seed)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
