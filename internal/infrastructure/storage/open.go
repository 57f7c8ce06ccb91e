package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/ports"
)

// Open builds the store selected by cfg.Driver, running migrations first when enabled.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (ports.Store, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return NewMemoryRepository(), nil
	}

	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnOpen() {
		if err := Migrate(ctx, dialect, cfg.DSN, log); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database connection: %w", err)
	}

	if dialect == DialectSQLite {
		// a single writer avoids SQLITE_BUSY between pool connections
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Debug("database connected", "driver", dialect)
	return NewSQLRepository(db, dialect), nil
}
