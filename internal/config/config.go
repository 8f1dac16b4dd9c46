package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"todolist/internal/store"
)

// Config holds the runtime configuration for the todolist server.
type Config struct {
	Port        string
	Driver      string
	DBPath      string
	DatabaseURL string
	Policy      store.Policy
	Debug       bool
}

// Keys used in viper, config files and flags.
const (
	KeyPort        = "port"
	KeyDriver      = "driver"
	KeyDBPath      = "db_path"
	KeyDatabaseURL = "database_url"
	KeyPolicy      = "policy"
	KeyDebug       = "debug"
)

// env maps each key to the environment variable that sets it.
var env = map[string]string{
	KeyPort:        "PORT",
	KeyDriver:      "DB_DRIVER",
	KeyDBPath:      "DB_PATH",
	KeyDatabaseURL: "DATABASE_URL",
	KeyPolicy:      "POLICY",
	KeyDebug:       "DEBUG",
}

// NewViper returns a viper instance with defaults and environment bindings
// registered. Flags may be bound on top of it.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyDriver, store.DriverSQLite)
	v.SetDefault(KeyDBPath, "./data/todos.db")
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyPolicy, string(store.PolicyHistory))
	v.SetDefault(KeyDebug, false)

	for key, name := range env {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, name)
	}

	v.SetConfigName("todolist")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/todolist")

	return v
}

// Load reads the optional config file and builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	policy, err := store.ParsePolicy(v.GetString(KeyPolicy))
	if err != nil {
		return nil, err
	}

	driver, err := store.ParseDriver(v.GetString(KeyDriver))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        v.GetString(KeyPort),
		Driver:      driver,
		DBPath:      v.GetString(KeyDBPath),
		DatabaseURL: v.GetString(KeyDatabaseURL),
		Policy:      policy,
		Debug:       v.GetBool(KeyDebug),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.Driver {
	case store.DriverSQLite:
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite driver")
		}
	case store.DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("driver must be %q or %q", store.DriverSQLite, store.DriverPostgres)
	}

	return nil
}

// StoreOptions returns the options for store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:      c.Driver,
		DBPath:      c.DBPath,
		DatabaseURL: c.DatabaseURL,
		Policy:      c.Policy,
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
