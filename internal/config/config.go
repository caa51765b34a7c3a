package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"shareit/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Exports    ExportConfig     `yaml:"exports"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	UserQuota UserQuotaConfig    `yaml:"user_quota"`
}

type APIHTTPConfig struct {
	Port            int    `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// APIGRPCConfig controls the gRPC health endpoint.
type APIGRPCConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Port          int    `yaml:"port"`
	Reflection    bool   `yaml:"reflection"`
	CheckInterval string `yaml:"check_interval"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// MaxClients bounds how many per-client limiters are kept.
	MaxClients int `yaml:"max_clients"`
}

// UserQuotaConfig limits requests per X-Sharer-User-Id in a fixed window.
type UserQuotaConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
}

type ExportConfig struct {
	MaxRows int `yaml:"max_rows"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.HTTP.Port <= 0 || c.API.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.API.HTTP.Port)
	}

	if c.API.GRPC.Enabled {
		if c.API.GRPC.Port <= 0 || c.API.GRPC.Port > 65535 {
			return fmt.Errorf("invalid grpc port %d", c.API.GRPC.Port)
		}
		if c.API.GRPC.Port == c.API.HTTP.Port {
			return errors.New("grpc and http ports must differ")
		}
	}

	if c.Backup.Enabled && c.Backup.StoragePath == "" {
		return errors.New("backup storage path is required when backup is enabled")
	}

	if c.API.Auth.Enabled {
		if len(c.API.Auth.APIKeys) == 0 {
			return errors.New("api auth enabled but no api keys configured")
		}
		for i, k := range c.API.Auth.APIKeys {
			if k.Key == "" {
				return fmt.Errorf("api key #%d is empty", i)
			}
		}
	}

	if c.API.UserQuota.Enabled {
		if c.API.UserQuota.Requests <= 0 {
			return errors.New("user quota requests must be positive")
		}
		if _, err := c.API.UserQuota.WindowDuration(); err != nil {
			return fmt.Errorf("user quota window: %w", err)
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ShutdownTimeout == "" {
		c.API.HTTP.ShutdownTimeout = "10s"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if c.API.GRPC.CheckInterval == "" {
		c.API.GRPC.CheckInterval = "15s"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.UserQuota.Window == "" {
		c.API.UserQuota.Window = fmt.Sprintf("%ds", models.DefaultUserQuotaWindow)
	}
	if c.API.UserQuota.Requests == 0 {
		c.API.UserQuota.Requests = models.DefaultUserQuotaRequests
	}
	if c.Exports.MaxRows == 0 {
		c.Exports.MaxRows = models.DefaultExportLimit
	}
	if c.API.RateLimit.MaxClients == 0 {
		c.API.RateLimit.MaxClients = 10000
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
}

// WindowDuration parses Window.
func (q UserQuotaConfig) WindowDuration() (time.Duration, error) {
	d, err := time.ParseDuration(q.Window)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive, got %s", q.Window)
	}
	return d, nil
}

// ShutdownDuration falls back to 10s on a malformed value.
func (h APIHTTPConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(h.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// CheckDuration falls back to 15s on a malformed value.
func (g APIGRPCConfig) CheckDuration() time.Duration {
	d, err := time.ParseDuration(g.CheckInterval)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}
