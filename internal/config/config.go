package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Log          LogConfig `mapstructure:"log"`
	Database     DatabaseConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Tracing      TracingConfig      `mapstructure:"tracing"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Supabase     SupabaseConfig     `mapstructure:"supabase"`
	Razorpay     RazorpayConfig     `mapstructure:"razorpay"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Analysis     AnalysisConfig     `mapstructure:"analysis"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
}

type DatabaseConfig struct {
	Driver    string // mysql | postgres
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	SSLMode   string `mapstructure:"sslmode"`
	ParseTime bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

// SupabaseConfig 身份提供方
type SupabaseConfig struct {
	URL       string `mapstructure:"url"`
	JWTSecret string `mapstructure:"jwt-secret"`
}

// RazorpayConfig 支付网关凭据，为空则关闭支付
type RazorpayConfig struct {
	KeyID         string `mapstructure:"key-id"`
	KeySecret     string `mapstructure:"key-secret"`
	WebhookSecret string `mapstructure:"webhook-secret"`
}

func (c RazorpayConfig) Enabled() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api-key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api-key"`
	BaseURL string `mapstructure:"base_url"`
}

type AnalysisConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type SubscriptionConfig struct {
	ReaperIntervalMinutes int      `mapstructure:"reaper_interval_minutes"`
	CacheTTLSeconds       int      `mapstructure:"cache_ttl_seconds"`
	PremiumPaths          []string `mapstructure:"premium_paths"`
}

func (c SubscriptionConfig) ReaperInterval() time.Duration {
	if c.ReaperIntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.ReaperIntervalMinutes) * time.Minute
}

func (c SubscriptionConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// DefaultPremiumPaths 需要有效订阅的接口
var DefaultPremiumPaths = []string{
	"/api/v1/recordings/:id/analyze",
	"/api/v1/recordings/:id/feedback",
	"/api/v1/revisions/generate",
	"/api/v1/revisions/:scheduleId/complete",
	"/api/v1/readiness",
	"/api/v1/analytics/weekly-progress",
	"/api/v1/analytics/pattern-progress",
	"/api/v1/analytics/streak",
	"/api/v1/analytics/summary",
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("REWIND")
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.queue_size", 64)
	v.SetDefault("subscription.reaper_interval_minutes", 60)
	v.SetDefault("subscription.cache_ttl_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Supabase
	v.BindEnv("supabase.url", "SUPABASE_URL")
	v.BindEnv("supabase.jwt-secret", "SUPABASE_JWT_SECRET")

	// Razorpay
	v.BindEnv("razorpay.key-id", "RAZORPAY_KEY_ID")
	v.BindEnv("razorpay.key-secret", "RAZORPAY_KEY_SECRET")
	v.BindEnv("razorpay.webhook-secret", "RAZORPAY_WEBHOOK_SECRET")

	// AI
	v.BindEnv("gemini.api-key", "GEMINI_API_KEY")
	v.BindEnv("openai.api-key", "OPENAI_API_KEY")

	// Storage / OSS
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Subscription.PremiumPaths) == 0 {
		cfg.Subscription.PremiumPaths = DefaultPremiumPaths
	}

	// 生产环境必须配置身份提供方
	if cfg.Server.Mode == "release" && cfg.Supabase.URL == "" && cfg.Supabase.JWTSecret == "" {
		return nil, fmt.Errorf("supabase.url or supabase.jwt-secret must be set in release mode")
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
