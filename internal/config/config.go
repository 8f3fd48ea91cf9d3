package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yigit/enrollhub/internal/pkg/helpers"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string   `yaml:"port" env:"SERVER_PORT"`
		Mode        string   `yaml:"mode" env:"SERVER_MODE"`
		CORSOrigins []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS" envSeparator:","`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		ConnectTimeout  string `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT"`
		Migrate         bool   `yaml:"migrate" env:"DB_MIGRATE"`
	} `yaml:"database"`

	Auth struct {
		Enabled  bool   `yaml:"enabled" env:"AUTH_ENABLED"`
		Secret   string `yaml:"secret" env:"JWT_SECRET"`
		Issuer   string `yaml:"issuer" env:"JWT_ISSUER"`
		TokenTTL string `yaml:"token_ttl" env:"JWT_TOKEN_TTL"`
	} `yaml:"auth"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled" env:"TRACING_ENABLED"`
		Exporter    string  `yaml:"exporter" env:"TRACING_EXPORTER"`
		Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		SampleRatio float64 `yaml:"sample_ratio" env:"TRACING_SAMPLE_RATIO"`
		ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
	} `yaml:"tracing"`

	Enrollment struct {
		// StrictStatus rejects unknown status values instead of defaulting them to Active
		StrictStatus bool `yaml:"strict_status" env:"ENROLLMENT_STRICT_STATUS"`
	} `yaml:"enrollment"`

	Seed struct {
		Enabled bool `yaml:"enabled" env:"SEED_ENABLED"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file, an optional .env file and
// environment variables, in that order of precedence (last wins).
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.CORSOrigins = []string{"*"}

	// Database defaults
	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "enrollhub"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.ConnectTimeout = "10s"
	config.Database.Migrate = true

	// Auth defaults
	config.Auth.Issuer = "enrollhub"
	config.Auth.TokenTTL = "24h"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Tracing defaults
	config.Tracing.Exporter = "stdout"
	config.Tracing.SampleRatio = 1
	config.Tracing.ServiceName = "enrollhub"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	var errs []error

	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			errs = append(errs, errors.New("database host is required"))
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			errs = append(errs, fmt.Errorf("invalid connection max lifetime: %w", err))
		}
		if _, err := time.ParseDuration(config.Database.ConnectTimeout); err != nil {
			errs = append(errs, fmt.Errorf("invalid connect timeout: %w", err))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", config.Database.Driver))
	}

	if config.Auth.Enabled && config.Auth.Secret == "" {
		errs = append(errs, errors.New("JWT secret is required when auth is enabled"))
	}
	if _, err := time.ParseDuration(config.Auth.TokenTTL); err != nil {
		errs = append(errs, fmt.Errorf("invalid token ttl: %w", err))
	}

	if config.Tracing.Enabled {
		switch strings.ToLower(config.Tracing.Exporter) {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Errorf("unsupported tracing exporter %q", config.Tracing.Exporter))
		}
		if config.Tracing.SampleRatio < 0 || config.Tracing.SampleRatio > 1 {
			errs = append(errs, errors.New("tracing sample ratio must be between 0 and 1"))
		}
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "production" || c.Server.Mode == "release"
}

// TokenTTL returns the parsed token lifetime
func (c *Config) TokenTTL() time.Duration {
	return helpers.ParseDuration(c.Auth.TokenTTL, 24*time.Hour)
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
