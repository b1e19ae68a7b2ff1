package catalogdb

import (
	"errors"

	"routecatalog.transit.hk/internal/appconf"
)

// InMemory is the DSN for a throwaway database.
const InMemory = ":memory:"

// Config holds configuration options for the Client
type Config struct {
	DBPath string // Path to SQLite database file
	Env    string // appconf environment name
}

func NewConfig(dbPath, env string) Config {
	return Config{DBPath: dbPath, Env: env}
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if c.Env == appconf.Test && c.DBPath != InMemory {
		return errors.New("test database must use in-memory storage")
	}
	return nil
}
