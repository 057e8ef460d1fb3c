// Package cache is the Redis read cache for agency aggregates.
//
// Each entry is a hash holding the JSON aggregate and its ComputedAt in
// microseconds. Set is a compare-and-set on that timestamp, so a reader that
// loaded an aggregate before a recompute cannot overwrite the newer entry the
// engine wrote after it. The TTL only bounds staleness when a write is lost.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"vouch/internal/aggregation/models"
	id "vouch/pkg/domain"
)

const (
	keyPrefix  = "agg:agency:"
	defaultTTL = 10 * time.Minute

	fieldData = "data"
)

// setIfNewer writes the entry unless the cached one was computed later.
// KEYS[1] entry, ARGV[1] json, ARGV[2] computed_at in µs, ARGV[3] ttl in ms.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'computed_us')
if current and tonumber(current) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'computed_us', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// RedisCache stores aggregates under agg:agency:<id>.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type Option func(*RedisCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func New(client *redis.Client, opts ...Option) *RedisCache {
	c := &RedisCache{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(agencyID id.AgencyID) string {
	return keyPrefix + agencyID.String()
}

// Get returns the cached aggregate. ok is false on a miss.
func (c *RedisCache) Get(ctx context.Context, agencyID id.AgencyID) (*models.Aggregate, bool, error) {
	raw, err := c.client.HGet(ctx, key(agencyID), fieldData).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached aggregate: %w", err)
	}
	var agg models.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		// A corrupt entry is a miss; drop it so the next read repopulates.
		_ = c.client.Del(ctx, key(agencyID)).Err()
		return nil, false, nil
	}
	return &agg, true, nil
}

// Set caches agg unless the entry already holds an aggregate computed later.
// An entry with the same ComputedAt is replaced.
func (c *RedisCache) Set(ctx context.Context, agg *models.Aggregate) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	err = setIfNewer.Run(ctx, c.client, []string{key(agg.AgencyID)},
		string(raw), agg.ComputedAt.UnixMicro(), c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("set cached aggregate: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, agencyID id.AgencyID) error {
	if err := c.client.Del(ctx, key(agencyID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached aggregate: %w", err)
	}
	return nil
}
