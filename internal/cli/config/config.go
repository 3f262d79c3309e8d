package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the gobis configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Match  MatchConfig  `mapstructure:"match"`
	Upload UploadConfig `mapstructure:"upload"`
	Output OutputConfig `mapstructure:"output"`
}

// ServerConfig represents catalog server configuration
type ServerConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
}

// CacheConfig represents candidate cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MatchConfig represents parent matching thresholds
type MatchConfig struct {
	MinTokenOverlap int           `mapstructure:"min_token_overlap"`
	RecencyWindow   time.Duration `mapstructure:"recency_window"`
	MaxPerTier      int           `mapstructure:"max_per_tier"`
	SearchLimit     int           `mapstructure:"search_limit"`
}

// UploadConfig represents upload destination configuration
type UploadConfig struct {
	Collections map[string]string `mapstructure:"collections"`
}

// CollectionFor returns the configured collection for a detected file kind,
// or "" when none is configured.
func (u UploadConfig) CollectionFor(kind string) string {
	return u.Collections[kind]
}

// OutputConfig represents terminal output configuration
type OutputConfig struct {
	NoColor bool `mapstructure:"no_color"`
}

// newViper builds a viper instance with gobis defaults, search paths, and
// environment overrides registered.
func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.url", "")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.verify_tls", true)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("match.min_token_overlap", 2)
	v.SetDefault("match.recency_window", 90*24*time.Hour)
	v.SetDefault("match.max_per_tier", 10)
	v.SetDefault("match.search_limit", 500)
	v.SetDefault("upload.collections", map[string]string{
		"fasta":            "/DDB/CK/FASTA",
		"spectral_library": "/DDB/CK/PREDSPECLIB",
		"unknown":          "/DDB/CK/UNKNOWN",
	})
	v.SetDefault("output.no_color", false)

	// Set config name and paths: current directory first, then the user
	// config directory
	v.SetConfigName("gobis")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "gobis"))
	}

	// Enable environment variable support: GOBIS_SERVER_URL etc.
	v.SetEnvPrefix("GOBIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// read builds a viper instance and loads the config file when one exists.
func read() (*viper.Viper, error) {
	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	return v, nil
}

// Load loads the configuration from gobis.yaml or gobis.yml
func Load() (*Config, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Get returns the effective value of one config key, with file and
// environment overrides applied.
func Get(key string) (any, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}
	return v.Get(key), nil
}

// List returns all effective settings.
func List() (map[string]any, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

// Keys returns every known config key in dotted form, sorted.
func Keys() ([]string, error) {
	v, err := read()
	if err != nil {
		return nil, err
	}
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys, nil
}

// UserPath returns the path of the per-user config file, whether or not it
// exists yet.
func UserPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate user config directory: %w", err)
	}
	return filepath.Join(dir, "gobis", "gobis.yaml"), nil
}

// Set writes one key to the per-user config file, creating the file when it
// does not exist yet.
func Set(key, value string) error {
	path, err := UserPath()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return v.WriteConfigAs(path)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.URL != "" {
		if !strings.HasPrefix(cfg.Server.URL, "http://") && !strings.HasPrefix(cfg.Server.URL, "https://") {
			return fmt.Errorf("server.url must start with http:// or https://, got: %s", cfg.Server.URL)
		}
	}
	if cfg.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got: %s", cfg.Server.Timeout)
	}
	if cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got: %s", cfg.Cache.TTL)
	}
	if cfg.Match.MinTokenOverlap < 1 {
		return fmt.Errorf("match.min_token_overlap must be at least 1, got: %d", cfg.Match.MinTokenOverlap)
	}
	if cfg.Match.RecencyWindow <= 0 {
		return fmt.Errorf("match.recency_window must be positive, got: %s", cfg.Match.RecencyWindow)
	}
	return nil
}
