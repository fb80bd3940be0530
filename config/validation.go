package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// productionRequired lists settings that have no usable default in production
var productionRequired = map[string]bool{
	"jwt_secret":  true,
	"db_user":     true,
	"db_password": true,
}

func isRequiredInProduction(key string) bool {
	return productionRequired[key]
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errors []string
	add := func(field, msg string) {
		errors = append(errors, ValidationError{Field: field, Message: msg}.Error())
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" {
			add("DB_HOST", "host and database name are required for postgres")
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "path is required for sqlite")
		}
	default:
		add("DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver))
	}

	switch cfg.MediaBackend {
	case "local":
		if cfg.MediaDir == "" {
			add("MEDIA_DIR", "directory is required for local media")
		}
	case "s3":
		if cfg.S3Bucket == "" {
			add("S3_BUCKET_NAME", "bucket is required for s3 media")
		}
	default:
		add("MEDIA_BACKEND", fmt.Sprintf("unsupported backend %q", cfg.MediaBackend))
	}

	if cfg.PageSize <= 0 {
		add("PAGE_SIZE", "must be positive")
	}
	if cfg.JWTTTL <= 0 {
		add("JWT_TTL", "must be positive")
	}

	// In production, sensitive values must come from the environment or Docker secrets
	if env == Production {
		if cfg.JWTSecret == "" {
			add("JWT_SECRET", "jwt_secret secret is required")
		}
		if cfg.DBDriver == "postgres" && (cfg.DBUser == "" || cfg.DBPassword == "") {
			add("DB_PASSWORD", "db_user and db_password secrets are required")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
