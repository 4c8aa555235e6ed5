package persistent

import (
	"fmt"

	"content-planner/pkg/config"
	"content-planner/pkg/database"
)

// Open returns the store selected by STORE_DRIVER.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(db), nil
	case config.StoreDriverFile, "":
		return NewFileStore(cfg.DataDir), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
