package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 10 * time.Minute

// DedupChecker records which location payloads were recently applied so
// replayed webhook deliveries can be suppressed.
// Key format: loc:<shipment_id>:<latitude>:<longitude>:<status>
// A key only says "this exact payload was applied within the TTL"; the
// service still compares the payload against the shipment's current state
// before treating a hit as a replay.
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker wraps the given Redis client. A non-positive ttl falls
// back to the default of 10 minutes.
func NewDedupChecker(client *redis.Client, ttl time.Duration) *DedupChecker {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupChecker{client: client, ttl: ttl}
}

// IsDuplicate reports whether this exact location payload was applied
// within the TTL.
func (d *DedupChecker) IsDuplicate(ctx context.Context, shipmentID, latitude, longitude, status string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(shipmentID, latitude, longitude, status)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this payload has been applied.
func (d *DedupChecker) Mark(ctx context.Context, shipmentID, latitude, longitude, status string) error {
	return d.client.Set(ctx, d.key(shipmentID, latitude, longitude, status), "1", d.ttl).Err()
}

func (d *DedupChecker) key(shipmentID, latitude, longitude, status string) string {
	return fmt.Sprintf("loc:%s:%s:%s:%s", shipmentID, latitude, longitude, status)
}
