// Package store persists pending alerts. Each operation is a single
// auto-committed statement, so concurrent inserts from the chat handlers and
// deletes from the engine never interleave within a row.
package store

import (
	"context"
	"fmt"

	"github.com/web3-frozen/price-alert/internal/alert"
)

// Store is the contract shared by the Postgres and SQLite backends.
type Store interface {
	Insert(ctx context.Context, a alert.Alert) (alert.Alert, error)
	ScanAll(ctx context.Context) ([]alert.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]alert.Alert, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteExact(ctx context.Context, userID string, asset alert.Asset, target float64) (int64, error)
	Count(ctx context.Context) (int, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend named by driver ("postgres" or "sqlite").
// dsn is a database URL for postgres and a file path for sqlite.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn)
	case "sqlite":
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, alert.ErrStorage, err)
}
