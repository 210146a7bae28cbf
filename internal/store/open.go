package store

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/vfbench/internal/config"
)

const DefaultSQLitePath = "data/vfbench.db"

// Open dispatches on the configured store driver.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: missing config")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	switch driver {
	case "sqlite":
		path := strings.TrimSpace(cfg.Store.Path)
		if path == "" {
			path = DefaultSQLitePath
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
}
