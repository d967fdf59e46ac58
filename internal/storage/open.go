package storage

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/studentdb/internal/config"
	"github.com/aanand-mishra/studentdb/internal/storage/memory"
	"github.com/aanand-mishra/studentdb/internal/storage/postgres"
	"github.com/aanand-mishra/studentdb/internal/storage/sqlite"
)

// Open connects to the driver selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverMemory:
		// Nothing survives a restart; tests and demos only.
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("storage.Open: unknown driver %q", cfg.StorageDriver)
	}
}
