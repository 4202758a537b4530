package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/ndcsqlite/internal/queryir"
	"github.com/roach88/ndcsqlite/internal/querysql"
	"github.com/roach88/ndcsqlite/internal/store"
)

const (
	maxWalkDepth = 25

	// EnvPrefix prefixes every environment override, e.g. NDCSQLITE_DATABASE_DSN.
	EnvPrefix = "NDCSQLITE"
)

// Config represents the connector configuration from ndcsqlite.yaml.
type Config struct {
	// Schema is a CUE package directory or a YAML catalog file.
	Schema string `mapstructure:"schema"`

	// Dialect is sqlite or postgres. Empty follows the database driver.
	Dialect string `mapstructure:"dialect"`

	Database DatabaseConfig `mapstructure:"database"`
	Limits   LimitsConfig   `mapstructure:"limits"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LimitsConfig bounds accepted requests.
type LimitsConfig struct {
	MaxDepth int `mapstructure:"max_depth"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// env > config file > defaults. Command flags are applied on top by the
// caller. A .env file in the working directory is loaded first; it never
// overrides variables already set.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema", "")
	v.SetDefault("dialect", "")
	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("limits.max_depth", queryir.DefaultMaxDepth)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for ndcsqlite.yaml or ndcsqlite.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"ndcsqlite.yaml", "ndcsqlite.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// ResolvedDialect returns the SQL dialect, following the database driver
// when none is configured.
func (c *Config) ResolvedDialect() (querysql.Dialect, error) {
	name := c.Dialect
	if name == "" && c.Database.Driver == store.DriverPostgres {
		name = "postgres"
	}
	return querysql.DialectByName(name)
}

// QueryLimits returns the configured request limits.
func (c *Config) QueryLimits() queryir.Limits {
	return queryir.Limits{MaxDepth: c.Limits.MaxDepth}
}
