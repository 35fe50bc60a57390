package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Schema sources
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Schema   SchemaConfig
	Cache    CacheConfig
	Metrics  MetricsConfig
}

// SchemaConfig selects where schema documents are read from
type SchemaConfig struct {
	Source     string // "file", "postgres" or "sqlite"
	File       string // Explicit document path (file source)
	Dir        string // Directory holding <name>.yaml documents (file source)
	SQLitePath string // Database file (sqlite source)
	Name       string // Document name used when none is given
}

// CacheConfig represents resolved-schema cache configuration
type CacheConfig struct {
	Enabled    bool
	MaxEntries int // Maximum number of resolved schemas kept in memory
	TTLMinutes int // Time-to-live for cache entries in minutes
}

// MetricsConfig represents the Prometheus exporter configuration
type MetricsConfig struct {
	Port int // Port for Prometheus metrics HTTP server
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Read config file (optional, ignore error if not found)
	_ = viper.ReadInConfig()

	// Environment variables take precedence over config file
	viper.AutomaticEnv()

	SetDefaults()
	return nil
}

// SetDefaults registers the default value of every key
func SetDefaults() {
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 15432)
	viper.SetDefault("DB_USER", "mdschema")
	viper.SetDefault("DB_NAME", "mdschema_dev")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("SCHEMA_SOURCE", SourceFile)
	viper.SetDefault("SCHEMA_NAME", "mspass")

	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_MAX_ENTRIES", 64)
	viper.SetDefault("CACHE_TTL_MINUTES", 5)

	viper.SetDefault("METRICS_PORT", 9090)
}

// Load loads configuration from viper
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Schema: SchemaConfig{
			Source:     viper.GetString("SCHEMA_SOURCE"),
			File:       viper.GetString("SCHEMA_FILE"),
			Dir:        viper.GetString("SCHEMA_DIR"),
			SQLitePath: viper.GetString("SQLITE_PATH"),
			Name:       viper.GetString("SCHEMA_NAME"),
		},
		Cache: CacheConfig{
			Enabled:    viper.GetBool("CACHE_ENABLED"),
			MaxEntries: viper.GetInt("CACHE_MAX_ENTRIES"),
			TTLMinutes: viper.GetInt("CACHE_TTL_MINUTES"),
		},
		Metrics: MetricsConfig{
			Port: viper.GetInt("METRICS_PORT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the combinations that cannot work
func (c *Config) Validate() error {
	switch c.Schema.Source {
	case SourcePostgres:
		// DB_PASSWORD is required for security
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
		}
	case SourceFile:
		// Documents are never looked up in an implicit location
		if c.Schema.File == "" && c.Schema.Dir == "" {
			return fmt.Errorf("SCHEMA_FILE or SCHEMA_DIR is required when SCHEMA_SOURCE is %s", SourceFile)
		}
	case SourceSQLite:
		if c.Schema.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when SCHEMA_SOURCE is %s", SourceSQLite)
		}
	default:
		return fmt.Errorf("unsupported SCHEMA_SOURCE: %q (want %s, %s or %s)", c.Schema.Source, SourceFile, SourcePostgres, SourceSQLite)
	}
	if c.Schema.Name == "" {
		return fmt.Errorf("SCHEMA_NAME is required")
	}
	return nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
