package journal

import (
	"fmt"
	"log/slog"

	"mercator-hq/opgraph/pkg/config"
)

// Open creates the store selected by cfg.Driver.
func Open(cfg config.JournalConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		return OpenSQLStore(cfg.Driver, cfg.Path, cfg.MaxOpenConns, logger)
	default:
		return nil, fmt.Errorf("unsupported journal driver %q", cfg.Driver)
	}
}
