package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Env      string `mapstructure:"CW_ENV"`
	HTTPAddr string `mapstructure:"CW_HTTP_ADDR"`

	Provider ProviderConfig `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	Refresh  RefreshConfig  `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type ProviderConfig struct {
	BaseURL    string        `mapstructure:"CW_PROVIDER_BASE_URL"`
	VsCurrency string        `mapstructure:"CW_VS_CURRENCY"`
	Timeout    time.Duration `mapstructure:"CW_PROVIDER_TIMEOUT"`
}

type CacheConfig struct {
	Backend  string `mapstructure:"CW_KV_BACKEND"` // "memory", "redis"
	RedisURL string `mapstructure:"CW_REDIS_URL"`
}

type RefreshConfig struct {
	Interval  time.Duration `mapstructure:"CW_REFRESH_INTERVAL"`
	StartPage int           `mapstructure:"CW_START_PAGE"`
	PageSize  int           `mapstructure:"CW_PAGE_SIZE"`
}

type SecurityConfig struct {
	RateLimitRPM       int      `mapstructure:"CW_RATE_LIMIT_RPM"`
	CORSAllowedOrigins []string `mapstructure:"CW_CORS_ALLOWED_ORIGINS"`
}

func loadDotEnvFiles() {
	candidates := []string{
		".env",
		filepath.Join("..", ".env"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = gotenv.Load(path) // ignore errors; env vars already set take precedence
		}
	}
}

func Load() (*Config, error) {
	loadDotEnvFiles()

	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("CW_ENV", "dev")
	viper.SetDefault("CW_HTTP_ADDR", ":8080")
	viper.SetDefault("CW_PROVIDER_BASE_URL", "https://api.coingecko.com/api/v3")
	viper.SetDefault("CW_VS_CURRENCY", "usd")
	viper.SetDefault("CW_PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("CW_KV_BACKEND", "redis")
	viper.SetDefault("CW_REDIS_URL", "redis://127.0.0.1:6379/0")
	viper.SetDefault("CW_REFRESH_INTERVAL", "10s")
	viper.SetDefault("CW_START_PAGE", 1)
	viper.SetDefault("CW_PAGE_SIZE", 5)
	viper.SetDefault("CW_RATE_LIMIT_RPM", 120)
	viper.SetDefault("CW_CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")

	// Handle array parsing for comma-separated values
	if origins := viper.GetString("CW_CORS_ALLOWED_ORIGINS"); origins != "" {
		viper.Set("CW_CORS_ALLOWED_ORIGINS", strings.Split(origins, ","))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("CW_PROVIDER_BASE_URL is required")
	}
	if c.Provider.VsCurrency == "" {
		return fmt.Errorf("CW_VS_CURRENCY is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid CW_KV_BACKEND %q (must be memory or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("CW_REDIS_URL is required when CW_KV_BACKEND is redis")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("CW_REFRESH_INTERVAL must be positive")
	}
	if c.Refresh.StartPage < 1 {
		return fmt.Errorf("CW_START_PAGE must be >= 1")
	}
	if c.Refresh.PageSize < 1 {
		return fmt.Errorf("CW_PAGE_SIZE must be >= 1")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func (c *Config) IsProd() bool {
	return c.Env == "prod"
}
