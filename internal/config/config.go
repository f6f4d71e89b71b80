package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fieldops/trackapi/internal/domain/resource"
)

// Supported database drivers.
const (
	DriverMongo = "mongo"
	DriverRedis = "redis"
)

// Config holds the trackapi configuration.
type Config struct {
	HTTP      HTTPConfig       `yaml:"http"`
	Database  DatabaseConfig   `yaml:"database"`
	Storage   StorageConfig    `yaml:"storage"`
	Resources []ResourceConfig `yaml:"resources"`
	CORS      CORSConfig       `yaml:"cors"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // mongo, redis (default: mongo)
	URI              string   `yaml:"uri"`    // mongo only
	Addrs            []string `yaml:"addrs"`  // redis only
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	QueryTimeoutSec  int      `yaml:"query_timeout_sec"`
}

// StorageConfig holds Redis layout settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	PageSize  int    `yaml:"page_size"`
}

// ResourceConfig binds an endpoint name to a collection and its filterable fields.
type ResourceConfig struct {
	Name       string   `yaml:"name"`
	Database   string   `yaml:"database"`
	Collection string   `yaml:"collection"`
	Fields     []string `yaml:"fields"` // empty: id, name, location, status, lastUpdate
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.Database.Driver == DriverMongo && c.Database.URI == "" {
		c.Database.URI = "mongodb://localhost:27017"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeoutSec <= 0 {
		c.Database.QueryTimeoutSec = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "trackapi:"
	}
	if c.Storage.PageSize <= 0 {
		c.Storage.PageSize = 500
	}
	if len(c.Resources) == 0 {
		for _, r := range resource.Defaults() {
			c.Resources = append(c.Resources, ResourceConfig{
				Name:       r.Name(),
				Database:   r.Database(),
				Collection: r.Collection(),
			})
		}
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for driver %q", DriverMongo)
		}
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverMongo, DriverRedis, c.Database.Driver)
	}
	if _, err := c.BuildResources(); err != nil {
		return err
	}
	return nil
}

// BuildResources converts the resources section into domain resources.
func (c *Config) BuildResources() ([]resource.Resource, error) {
	seen := make(map[string]struct{}, len(c.Resources))
	out := make([]resource.Resource, 0, len(c.Resources))
	for i, rc := range c.Resources {
		if _, dup := seen[rc.Name]; dup {
			return nil, fmt.Errorf("resources[%d]: duplicate name %q", i, rc.Name)
		}
		seen[rc.Name] = struct{}{}

		r, err := resource.New(rc.Name, rc.Database, rc.Collection, rc.Fields)
		if err != nil {
			return nil, fmt.Errorf("resources[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
