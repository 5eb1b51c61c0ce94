package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	GCS       GCSConfig       `json:"gcs" yaml:"gcs"`
	Gotenberg GotenbergConfig `json:"gotenberg" yaml:"gotenberg"`
	Cleanup   CleanupConfig   `json:"cleanup" yaml:"cleanup"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

type ServerConfig struct {
	Port         string   `json:"port" yaml:"port"`
	Environment  string   `json:"environment" yaml:"environment"`
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes"`
}

type DatabaseConfig struct {
	Type     string `json:"type" yaml:"type"` // sqlite, mysql
	Path     string `json:"path" yaml:"path"` // sqlite file
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
}

type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"` // local, gcs
	Root    string `json:"root" yaml:"root"`
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name" yaml:"bucket_name"`
	ProjectID       string `json:"project_id" yaml:"project_id"`
	CredentialsPath string `json:"credentials_path" yaml:"credentials_path"`
}

type GotenbergConfig struct {
	URL     string `json:"url" yaml:"url"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

type CleanupConfig struct {
	Interval time.Duration `json:"interval" yaml:"interval"`
	MaxAge   time.Duration `json:"max_age" yaml:"max_age"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// DSN returns the driver-specific connection string for the configured database type.
func (d *DatabaseConfig) DSN() string {
	if d.Type != "mysql" {
		return d.Path
	}
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
			AllowOrigins: []string{
				"http://localhost:3000",
			},
			MaxBodyBytes: 32 << 20,
		},
		Database: DatabaseConfig{
			Type:   "sqlite",
			Path:   "./data/docgen.db",
			Host:   "localhost",
			Port:   "3306",
			User:   "root",
			DBName: "docgen",
		},
		Storage: StorageConfig{
			Backend: "local",
			Root:    "./data/files",
		},
		Gotenberg: GotenbergConfig{
			Timeout: "30s",
		},
		Cleanup: CleanupConfig{
			Interval: time.Hour,
			MaxAge:   24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_PATH, default config.yaml) and the environment, in that order.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	config := defaults()

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	config.Server.Port = getEnv("SERVER_PORT", config.Server.Port)
	config.Server.Environment = getEnv("ENVIRONMENT", config.Server.Environment)
	if origins := parseAllowOrigins(); len(origins) > 0 {
		config.Server.AllowOrigins = origins
	}

	if value := os.Getenv("MAX_BODY_BYTES"); value != "" {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q", value)
		}
		config.Server.MaxBodyBytes = n
	}

	config.Database.Type = getEnv("DB_TYPE", config.Database.Type)
	config.Database.Path = getEnv("DB_PATH", config.Database.Path)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnv("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.DBName = getEnv("DB_NAME", config.Database.DBName)

	config.Storage.Backend = getEnv("STORAGE_BACKEND", config.Storage.Backend)
	config.Storage.Root = getEnv("STORAGE_ROOT", config.Storage.Root)

	config.GCS.BucketName = getEnv("GCS_BUCKET_NAME", config.GCS.BucketName)
	config.GCS.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", config.GCS.ProjectID)
	config.GCS.CredentialsPath = getEnv("GCS_CREDENTIALS_PATH", config.GCS.CredentialsPath)

	config.Gotenberg.URL = getEnv("GOTENBERG_URL", config.Gotenberg.URL)
	config.Gotenberg.Timeout = getEnv("GOTENBERG_TIMEOUT", config.Gotenberg.Timeout)

	var err error
	if config.Cleanup.Interval, err = getDuration("CLEANUP_INTERVAL", config.Cleanup.Interval); err != nil {
		return nil, err
	}
	if config.Cleanup.MaxAge, err = getDuration("CLEANUP_MAX_AGE", config.Cleanup.MaxAge); err != nil {
		return nil, err
	}

	config.Log.Level = getEnv("LOG_LEVEL", config.Log.Level)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Database.Type {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.Database.Type)
	}
	switch c.Storage.Backend {
	case "local":
	case "gcs":
		if c.GCS.BucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME is required for the gcs storage backend")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseAllowOrigins() []string {
	origins := os.Getenv("ALLOW_ORIGINS")
	if origins == "" {
		return nil
	}
	var allowOrigins []string
	for _, origin := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowOrigins = append(allowOrigins, trimmed)
		}
	}
	return allowOrigins
}
