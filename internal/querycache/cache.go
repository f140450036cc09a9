// Package querycache persists merged media timelines in Redis so repeat
// queries inside the freshness window skip the engine fan-out entirely.
package querycache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/technosupport/ts-media-hub/internal/media"
)

const keyPrefix = "mediahub:timeline:"

type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

type entry struct {
	Items    []*media.ViewMedia `json:"items"`
	StoredAt time.Time          `json:"stored_at"`
}

// Get returns the cached timeline and when it was stored. Misses and
// decode failures both report not-found.
func (c *Cache) Get(ctx context.Context, key string) ([]*media.ViewMedia, time.Time, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return nil, time.Time{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, time.Time{}, false
	}
	return e.Items, e.StoredAt, true
}

// Set stores the timeline. A zero ttl means no expiry.
func (c *Cache) Set(ctx context.Context, key string, items []*media.ViewMedia, ttl time.Duration) error {
	raw, err := json.Marshal(entry{Items: items, StoredAt: time.Now()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}
