package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	APIRoot          string        `mapstructure:"api_root"`
	APIPrefix        string        `mapstructure:"api_prefix"`
	RequestTimeoutMs int64         `mapstructure:"request_timeout_ms"`
	RequestTimeout   time.Duration `mapstructure:"-"`
	WithCredentials  bool          `mapstructure:"with_credentials"`
	TokenKey         string        `mapstructure:"token_key"`
	SessionCookie    string        `mapstructure:"session_cookie"`

	SyncIntervalSeconds int64         `mapstructure:"sync_interval"`
	SyncInterval        time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

const (
	DefaultAPIRoot          = "http://localhost:5000"
	DefaultAPIPrefix        = "/api"
	DefaultRequestTimeoutMs = 15000
	DefaultTokenKey         = "token"
)

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "inspectra")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("api_root", DefaultAPIRoot)
	v.SetDefault("api_prefix", DefaultAPIPrefix)
	v.SetDefault("request_timeout_ms", DefaultRequestTimeoutMs)
	v.SetDefault("with_credentials", true)
	v.SetDefault("token_key", DefaultTokenKey)
	v.SetDefault("session_cookie", "")
	v.SetDefault("sync_interval", 900) // seconds
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/inspectra.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates raw values and derives the duration fields.
func (cfg *Config) normalize() error {
	cfg.APIRoot = strings.TrimRight(strings.TrimSpace(cfg.APIRoot), "/")
	if cfg.APIRoot == "" {
		cfg.APIRoot = DefaultAPIRoot
	}
	cfg.APIPrefix = strings.TrimSpace(cfg.APIPrefix)
	cfg.TokenKey = strings.TrimSpace(cfg.TokenKey)
	if cfg.TokenKey == "" {
		cfg.TokenKey = DefaultTokenKey
	}

	if cfg.RequestTimeoutMs <= 0 {
		return fmt.Errorf("invalid request_timeout_ms (must be positive milliseconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutMs) * time.Millisecond

	if cfg.SyncIntervalSeconds <= 0 {
		return fmt.Errorf("invalid sync_interval (must be positive seconds)")
	}
	cfg.SyncInterval = time.Duration(cfg.SyncIntervalSeconds) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}
