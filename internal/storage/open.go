package storage

import (
	"fmt"
	"strings"

	"github.com/Veraticus/smarttrack/internal/service"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the database.
type Config struct {
	Driver string
	Path   string
	DSN    string
}

// Open connects to the configured database. Callers still run Migrate.
func Open(cfg Config) (service.Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		return NewSQLiteStorage(cfg.Path)
	case DriverPostgres:
		return NewPostgresStorage(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
