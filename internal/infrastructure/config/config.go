package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Base URLs of the Vidro API per environment
const (
	DevelopmentBaseURL = "https://localhost:58949"
	ProductionBaseURL  = "https://vidro-api.onrender.com"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	API       APIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	DevServer DevServerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Version string
	Locale  string // es, en
}

// APIConfig holds settings of the remote Vidro API
type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgent      string
	RateLimitQPS   float64 // 0 disables client-side limiting
	RateLimitBurst int
	InsecureTLS    bool // accept the self-signed certificate of the local API
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool
	CollectorEndpoint     string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64 // 0.0-1.0
	ServiceName           string
	Insecure              bool
	MetricsExportInterval time.Duration
}

// DevServerConfig holds settings of the local development API server
type DevServerConfig struct {
	Port      string
	DSN       string // sqlite DSN, ":memory:" by default
	Seed      bool
	SeedCount int
	LogLevel  string // gorm log level: silent, error, warn, info
	Legacy    bool   // serve glasses with a single "price" display string
}

// Load loads configuration from vidro.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with VIDRO_ prefix (e.g., VIDRO_API_BASE_URL)
// 2. vidro.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given file instead of searching
// the default locations. An empty path searches.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vidro")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/vidro")
		v.AddConfigPath("/etc/vidro")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VIDRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Version: v.GetString("app.version"),
			Locale:  v.GetString("app.locale"),
		},
		API: APIConfig{
			BaseURL:        v.GetString("api.base_url"),
			Timeout:        v.GetDuration("api.timeout"),
			UserAgent:      v.GetString("api.user_agent"),
			RateLimitQPS:   v.GetFloat64("api.rate_limit_qps"),
			RateLimitBurst: v.GetInt("api.rate_limit_burst"),
			InsecureTLS:    v.GetBool("api.insecure_tls"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
		DevServer: DevServerConfig{
			Port:      v.GetString("devserver.port"),
			DSN:       v.GetString("devserver.dsn"),
			Seed:      v.GetBool("devserver.seed"),
			SeedCount: v.GetInt("devserver.seed_count"),
			LogLevel:  v.GetString("devserver.log_level"),
			Legacy:    v.GetBool("devserver.legacy"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vidro"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}
	if cfg.App.Locale == "" {
		cfg.App.Locale = "es"
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL(cfg.App.Env)
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = cfg.App.Name + "/" + cfg.App.Version
	}
	if cfg.API.RateLimitQPS > 0 && cfg.API.RateLimitBurst == 0 {
		cfg.API.RateLimitBurst = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 30 * time.Second
	}
	if cfg.DevServer.Port == "" {
		cfg.DevServer.Port = "58949"
	}
	if cfg.DevServer.DSN == "" {
		cfg.DevServer.DSN = ":memory:"
	}
	if cfg.DevServer.SeedCount == 0 {
		cfg.DevServer.SeedCount = 10
	}
	if cfg.DevServer.LogLevel == "" {
		cfg.DevServer.LogLevel = "warn"
	}
}

// DefaultBaseURL returns the API base URL used when none is configured
func DefaultBaseURL(env string) string {
	if env == "production" {
		return ProductionBaseURL
	}
	return DevelopmentBaseURL
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.RateLimitQPS < 0 {
		return fmt.Errorf("api.rate_limit_qps cannot be negative")
	}
	if c.App.Locale != "es" && c.App.Locale != "en" {
		return fmt.Errorf("app.locale must be es or en, got %q", c.App.Locale)
	}

	if c.App.Env == "production" {
		if u.Scheme != "https" {
			return fmt.Errorf("api.base_url must use https in production")
		}
		if c.API.InsecureTLS {
			return fmt.Errorf("api.insecure_tls must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.DevServer.SeedCount < 0 {
		return fmt.Errorf("devserver.seed_count cannot be negative")
	}

	return nil
}

// IsProduction reports whether the app runs against the production API
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
