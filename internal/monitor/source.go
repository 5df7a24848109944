package monitor

import (
	"context"
	"time"

	"github.com/web3-frozen/price-alert/internal/alert"
)

// PriceSource fetches the current price of one asset from a single upstream.
// Implementations must bound each call with a timeout; any error means the
// price is unavailable for this cycle.
type PriceSource interface {
	// Name returns a unique identifier for this source (e.g., "bitbank").
	Name() string

	// FetchPrice returns the last trade price for asset.
	FetchPrice(ctx context.Context, asset alert.Asset) (float64, error)
}

// AlertStore is the subset of the alert store the engine needs.
type AlertStore interface {
	ScanAll(ctx context.Context) ([]alert.Alert, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// Notifier delivers a one-time message to a user. It never retries.
type Notifier interface {
	Send(ctx context.Context, userID, text string) error
}

// NotifyFunc adapts a plain function to Notifier.
type NotifyFunc func(ctx context.Context, userID, text string) error

func (f NotifyFunc) Send(ctx context.Context, userID, text string) error {
	return f(ctx, userID, text)
}

// Deduplicator remembers delivered alerts until their rows are deleted.
// Markers identify a row by id and creation time.
type Deduplicator interface {
	AlreadySent(ctx context.Context, a alert.Alert) bool
	Record(ctx context.Context, a alert.Alert) error
	Clear(ctx context.Context, a alert.Alert)
}

// Quote is a price observed during an evaluation cycle.
type Quote struct {
	Asset     alert.Asset `json:"asset"`
	Price     float64     `json:"price"`
	Source    string      `json:"source"`
	FetchedAt time.Time   `json:"fetched_at"`
}
