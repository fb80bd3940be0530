package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Media storage
	MediaBackend string
	MediaDir     string
	MediaBaseURL string
	S3Bucket     string
	AWSRegion    string

	// HTTP surface
	PageSize          int
	CORSOrigins       []string
	RecipeCreateLimit int
	RecipeCreateEvery time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// setting describes where a value comes from: an environment variable, then a
// Docker secret file, then the development default.
type setting struct {
	env    string
	secret string
	def    string
}

var settings = map[string]setting{
	"server_port":         {"SERVER_PORT", "server_port", "8080"},
	"server_host":         {"SERVER_HOST", "server_host", "0.0.0.0"},
	"db_driver":           {"DB_DRIVER", "db_driver", "sqlite"},
	"db_host":             {"DB_HOST", "db_host", "localhost"},
	"db_port":             {"DB_PORT", "db_port", "5432"},
	"db_user":             {"DB_USER", "db_user", "postgres"},
	"db_password":         {"DB_PASSWORD", "db_password", "postgres"},
	"db_name":             {"DB_NAME", "db_name", "foodgram"},
	"db_ssl_mode":         {"DB_SSL_MODE", "db_ssl_mode", "disable"},
	"sqlite_path":         {"SQLITE_PATH", "sqlite_path", "foodgram.db"},
	"redis_host":          {"REDIS_HOST", "redis_host", "localhost"},
	"redis_port":          {"REDIS_PORT", "redis_port", "6379"},
	"redis_password":      {"REDIS_PASSWORD", "redis_password", ""},
	"redis_url":           {"REDIS_URL", "redis_url", ""},
	"jwt_secret":          {"JWT_SECRET", "jwt_secret", "dev-secret-key"},
	"jwt_ttl":             {"JWT_TTL", "jwt_ttl", "24h"},
	"media_backend":       {"MEDIA_BACKEND", "media_backend", "local"},
	"media_dir":           {"MEDIA_DIR", "media_dir", "media"},
	"media_base_url":      {"MEDIA_BASE_URL", "media_base_url", "/media"},
	"s3_bucket":           {"S3_BUCKET_NAME", "s3_bucket", "foodgram-recipe-images"},
	"aws_region":          {"AWS_REGION", "aws_region", "us-east-1"},
	"page_size":           {"PAGE_SIZE", "page_size", "6"},
	"cors_origins":        {"CORS_ORIGINS", "cors_origins", "http://localhost:3000"},
	"recipe_create_limit": {"RECIPE_CREATE_LIMIT", "recipe_create_limit", "30"},
	"recipe_create_every": {"RECIPE_CREATE_WINDOW", "recipe_create_window", "1h"},
	"log_level":           {"LOG_LEVEL", "log_level", "info"},
	"log_format":          {"LOG_FORMAT", "log_format", "json"},
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	var errs []string
	get := func(key string) string {
		s := settings[key]
		if v := os.Getenv(s.env); v != "" {
			return v
		}
		if v := readSecret(s.secret); v != "" {
			return v
		}
		if env == Production && isRequiredInProduction(key) {
			return ""
		}
		return s.def
	}
	getInt := func(key string) int {
		raw := get(key)
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid integer %q", settings[key].env, raw))
		}
		return n
	}
	getDuration := func(key string) time.Duration {
		raw := get(key)
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", settings[key].env, raw))
		}
		return d
	}

	cfg := &Config{
		ServerPort:        get("server_port"),
		ServerHost:        get("server_host"),
		DBDriver:          strings.ToLower(get("db_driver")),
		DBHost:            get("db_host"),
		DBPort:            get("db_port"),
		DBUser:            get("db_user"),
		DBPassword:        get("db_password"),
		DBName:            get("db_name"),
		DBSSLMode:         get("db_ssl_mode"),
		SQLitePath:        get("sqlite_path"),
		RedisHost:         get("redis_host"),
		RedisPort:         get("redis_port"),
		RedisPassword:     get("redis_password"),
		RedisDB:           0, // This is a constant, not a secret
		RedisURL:          get("redis_url"),
		JWTSecret:         get("jwt_secret"),
		JWTTTL:            getDuration("jwt_ttl"),
		MediaBackend:      strings.ToLower(get("media_backend")),
		MediaDir:          get("media_dir"),
		MediaBaseURL:      strings.TrimRight(get("media_base_url"), "/"),
		S3Bucket:          get("s3_bucket"),
		AWSRegion:         get("aws_region"),
		PageSize:          getInt("page_size"),
		CORSOrigins:       splitList(get("cors_origins")),
		RecipeCreateLimit: getInt("recipe_create_limit"),
		RecipeCreateEvery: getDuration("recipe_create_every"),
		LogLevel:          get("log_level"),
		LogFormat:         get("log_format"),
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to parse configuration:\n%s", strings.Join(errs, "\n"))
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
