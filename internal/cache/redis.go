package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/i474232898/travel-climate/internal/climate"
)

// DefaultTTL is how long a profile stays cached. Historical climate data
// does not change, so a long expiry with lazy regeneration nearly
// eliminates redundant external calls.
const DefaultTTL = 7 * 24 * time.Hour

// RedisCache persists compressed monthly profiles in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis creates a RedisCache. A ttl of zero falls back to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "profile_cache").Logger(),
	}
}

// Get returns the cached profile for (city, month). Misses and expired
// entries report ok=false. A corrupt entry is treated as a miss and the
// entry is dropped so the next resolution rewrites it.
func (c *RedisCache) Get(ctx context.Context, city string, month int) (climate.MonthlyProfile, bool, error) {
	key := Key(city, month)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return climate.MonthlyProfile{}, false, nil
		}
		return climate.MonthlyProfile{}, false, fmt.Errorf("reading cache key %s: %w", key, err)
	}

	profile, err := decodeProfile(data)
	if err != nil {
		c.log.Warn().Str("key", key).Err(err).Msg("corrupt cache entry, treating as miss")
		c.client.Del(ctx, key)
		return climate.MonthlyProfile{}, false, nil
	}
	return profile, true, nil
}

// Put overwrites the entry for the profile's (city, month) with a fresh TTL.
func (c *RedisCache) Put(ctx context.Context, profile climate.MonthlyProfile) error {
	data, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	key := Key(profile.City, profile.Month)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}
	return nil
}
