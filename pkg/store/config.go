package store

import (
	"errors"
	"fmt"
	"os"
)

type BackendType string

const (
	BackendFile     BackendType = "file"
	BackendSQLite   BackendType = "sqlite"
	BackendMongoDB  BackendType = "mongodb"
	BackendPostgres BackendType = "postgres"
)

// Config selects and parameterizes the persistence backend. Only the file and
// sqlite backends have working implementations; mongodb and postgres are
// recognized but fail at repository construction.
type Config struct {
	Type        BackendType
	FilePath    string // root directory for the file backend
	SQLitePath  string // database file for the sqlite backend
	MongoURL    string
	PostgresURL string
}

// ConfigFromEnv reads the backend configuration from the environment and
// validates it. Missing connection info for the selected backend is a startup
// error, not a deferred one.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Type:        BackendType(envString("DATABASE_TYPE", string(BackendFile))),
		FilePath:    envString("DATABASE_FILE_PATH", "data"),
		SQLitePath:  envString("DATABASE_SQLITE_PATH", "groundwork.db"),
		MongoURL:    os.Getenv("MONGODB_URL"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Type {
	case BackendFile:
		if c.FilePath == "" {
			return errors.New("DATABASE_FILE_PATH is required for the file backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("DATABASE_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendMongoDB:
		if c.MongoURL == "" {
			return errors.New("MONGODB_URL is required for the mongodb backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedBackend, c.Type)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
