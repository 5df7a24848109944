package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/web3-frozen/price-alert/internal/alert"
)

const keyPrefix = "alert:delivered:"

// Deduplicator records which alerts have been delivered, bridging the gap
// between a successful send and the store delete.
type Deduplicator struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a Deduplicator backed by Redis. Markers expire after ttl.
func New(redisURL, password string, ttl time.Duration) (*Deduplicator, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if password != "" {
		opts.Password = password
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Deduplicator{rdb: rdb, ttl: ttl}, nil
}

// Close shuts down the Redis connection.
func (d *Deduplicator) Close() error {
	return d.rdb.Close()
}

// AlreadySent reports whether a has a delivery marker. Redis errors
// report false: a duplicate notification is preferred over a suppressed one.
func (d *Deduplicator) AlreadySent(ctx context.Context, a alert.Alert) bool {
	exists, err := d.rdb.Exists(ctx, key(a)).Result()
	return err == nil && exists > 0
}

// Record marks a as delivered.
func (d *Deduplicator) Record(ctx context.Context, a alert.Alert) error {
	return d.rdb.Set(ctx, key(a), "1", d.ttl).Err()
}

// Clear removes the marker once the alert row is gone.
func (d *Deduplicator) Clear(ctx context.Context, a alert.Alert) {
	d.rdb.Del(ctx, key(a)) //nolint:errcheck
}

// key identifies one row lifetime. A reused id from a recreated store has a
// different created_at and never matches a stale marker.
func key(a alert.Alert) string {
	return fmt.Sprintf("%s%d:%d", keyPrefix, a.ID, a.CreatedAt.UnixNano())
}
