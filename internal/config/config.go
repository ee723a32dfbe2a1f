package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Comparer  ComparerConfig
	Signature SignatureConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ComparerConfig holds settings for the external signature-comparison service.
type ComparerConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// SignatureConfig holds settings for the authentication fan-out.
type SignatureConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Load reads configuration from environment variables with the VERIDOC_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VERIDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "veridoc")
	v.SetDefault("db.password", "veridoc_secret")
	v.SetDefault("db.name", "veridoc_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "veridoc-uploads")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Comparer defaults
	v.SetDefault("comparer.provider", "gemini")
	v.SetDefault("comparer.api_key", "")
	v.SetDefault("comparer.default_model", "gemini-2.0-flash")
	v.SetDefault("comparer.max_retries", 2)
	v.SetDefault("comparer.timeout_secs", 60)

	// Signature fan-out defaults
	v.SetDefault("signature.concurrency", 4)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":            "VERIDOC_SERVER_PORT",
		"server.read_timeout":    "VERIDOC_SERVER_READ_TIMEOUT",
		"server.write_timeout":   "VERIDOC_SERVER_WRITE_TIMEOUT",
		"server.environment":     "VERIDOC_SERVER_ENVIRONMENT",
		"db.host":                "VERIDOC_DB_HOST",
		"db.port":                "VERIDOC_DB_PORT",
		"db.user":                "VERIDOC_DB_USER",
		"db.password":            "VERIDOC_DB_PASSWORD",
		"db.name":                "VERIDOC_DB_NAME",
		"db.sslmode":             "VERIDOC_DB_SSLMODE",
		"db.max_open":            "VERIDOC_DB_MAX_OPEN",
		"db.max_idle":            "VERIDOC_DB_MAX_IDLE",
		"s3.region":              "VERIDOC_S3_REGION",
		"s3.bucket":              "VERIDOC_S3_BUCKET",
		"s3.endpoint":            "VERIDOC_S3_ENDPOINT",
		"s3.access_key":          "VERIDOC_S3_ACCESS_KEY",
		"s3.secret_key":          "VERIDOC_S3_SECRET_KEY",
		"s3.presign_expiry":      "VERIDOC_S3_PRESIGN_EXPIRY",
		"log.level":              "VERIDOC_LOG_LEVEL",
		"log.format":             "VERIDOC_LOG_FORMAT",
		"cors.allowed_origins":   "VERIDOC_CORS_ALLOWED_ORIGINS",
		"comparer.provider":      "VERIDOC_COMPARER_PROVIDER",
		"comparer.api_key":       "VERIDOC_COMPARER_API_KEY",
		"comparer.default_model": "VERIDOC_COMPARER_DEFAULT_MODEL",
		"comparer.max_retries":   "VERIDOC_COMPARER_MAX_RETRIES",
		"comparer.timeout_secs":  "VERIDOC_COMPARER_TIMEOUT_SECS",
		"signature.concurrency":  "VERIDOC_SIGNATURE_CONCURRENCY",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if VERIDOC_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("VERIDOC_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Comparer = ComparerConfig{
		Provider:     v.GetString("comparer.provider"),
		APIKey:       v.GetString("comparer.api_key"),
		DefaultModel: v.GetString("comparer.default_model"),
		MaxRetries:   v.GetInt("comparer.max_retries"),
		TimeoutSecs:  v.GetInt("comparer.timeout_secs"),
	}
	cfg.Signature = SignatureConfig{
		Concurrency: v.GetInt("signature.concurrency"),
	}

	return cfg, nil
}
