package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the bexp server.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Retention RetentionConfig `mapstructure:"retention"`

	// SeedFile optionally points at a YAML experiment definition file that
	// is registered on startup.
	SeedFile string `mapstructure:"seed_file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	TokenFile string `mapstructure:"token_file"`

	// Beacon ingest rate limiting (requests per second + burst).
	BeaconRate  float64 `mapstructure:"beacon_rate"`
	BeaconBurst int     `mapstructure:"beacon_burst"`
}

// StorageConfig holds durability settings. An empty path keeps the engine
// purely in-memory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// RetentionConfig controls the background event cleanup sweep.
type RetentionConfig struct {
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Manager pairs the decoded config with the viper instance that produced
// it, so callers can opt into hot reload.
type Manager struct {
	v *viper.Viper

	mu  sync.RWMutex
	cfg Config
}

// Load reads configuration from defaults, an optional YAML file, and
// BEXP_*-prefixed environment variables (in ascending precedence).
func Load(path string) (*Manager, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BEXP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("bexp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// No config file is fine; defaults + env cover everything.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	m := &Manager{v: v}
	if err := v.Unmarshal(&m.cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return m, nil
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Watch re-reads the config file when it changes and invokes onChange with
// the fresh snapshot. Changes that fail to decode are ignored, keeping the
// last good config.
func (m *Manager) Watch(onChange func(Config)) {
	m.v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := m.v.Unmarshal(&cfg); err != nil {
			return
		}
		m.mu.Lock()
		m.cfg = cfg
		m.mu.Unlock()
		if onChange != nil {
			onChange(cfg)
		}
	})
	m.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.token_file", ".bexp-token")
	v.SetDefault("server.beacon_rate", 200.0)
	v.SetDefault("server.beacon_burst", 400)

	// Storage defaults: in-memory only unless a path is configured
	v.SetDefault("storage.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.directory", "")
	v.SetDefault("logging.max_size", 10) // MB
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7) // days
	v.SetDefault("logging.compress", false)

	// Retention defaults
	v.SetDefault("retention.max_age", 90*24*time.Hour)
	v.SetDefault("retention.sweep_interval", time.Hour)
}
