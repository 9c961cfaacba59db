// Package cache provides a Redis read-through cache for warehouse lookups.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pharmdist/salesflow/internal/domain/territory"
	"github.com/pharmdist/salesflow/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "salesflow:customer_location:"
	defaultTTL = 24 * time.Hour
)

var _ territory.CustomerLocationRepository = (*CustomerLocationCache)(nil)

// CustomerLocationCache caches customer locations in Redis in front of the
// warehouse repository. Redis failures fall through to the repository.
type CustomerLocationCache struct {
	client     redis.UniversalClient
	ownsClient bool
	next       territory.CustomerLocationRepository
	ttl        time.Duration
	logger     *zap.Logger
}

// Option is a functional option for configuring the cache
type Option func(*CustomerLocationCache)

// WithTTL sets how long cached locations live
func WithTTL(ttl time.Duration) Option {
	return func(c *CustomerLocationCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) Option {
	return func(c *CustomerLocationCache) {
		c.logger = logger
	}
}

// NewCustomerLocationCache connects to Redis and wraps next
func NewCustomerLocationCache(ctx context.Context, cfg config.RedisConfig, next territory.CustomerLocationRepository, opts ...Option) (*CustomerLocationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewCustomerLocationCacheWithClient(client, next, append([]Option{WithTTL(cfg.TTL)}, opts...)...)
	c.ownsClient = true
	return c, nil
}

// NewCustomerLocationCacheWithClient wraps next using an existing client.
// The caller keeps ownership of the client.
func NewCustomerLocationCacheWithClient(client redis.UniversalClient, next territory.CustomerLocationRepository, opts ...Option) *CustomerLocationCache {
	c := &CustomerLocationCache{
		client: client,
		next:   next,
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(customer string) string {
	return keyPrefix + customer
}

// HasCustomers is not cached; it reflects the current warehouse state
func (c *CustomerLocationCache) HasCustomers(ctx context.Context) (bool, error) {
	return c.next.HasCustomers(ctx)
}

// FindLocations serves cached customers from Redis and loads the rest from the
// repository, writing them back
func (c *CustomerLocationCache) FindLocations(ctx context.Context, customers []string) (map[string]territory.Location, error) {
	if len(customers) == 0 {
		return map[string]territory.Location{}, nil
	}

	keys := make([]string, len(customers))
	for i, customer := range customers {
		keys[i] = cacheKey(customer)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Customer location cache unavailable, reading from database", zap.Error(err))
		return c.next.FindLocations(ctx, customers)
	}

	out := make(map[string]territory.Location, len(customers))
	var misses []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, customers[i])
			continue
		}
		var loc territory.Location
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			c.logger.Warn("Dropping corrupted cache entry", zap.String("customer", customers[i]), zap.Error(err))
			_ = c.client.Del(ctx, keys[i])
			misses = append(misses, customers[i])
			continue
		}
		out[customers[i]] = loc
	}
	c.logger.Debug("Customer location cache lookup",
		zap.Int("hits", len(out)),
		zap.Int("misses", len(misses)))
	if len(misses) == 0 {
		return out, nil
	}

	found, err := c.next.FindLocations(ctx, misses)
	if err != nil {
		return nil, err
	}
	c.store(ctx, found)
	for customer, loc := range found {
		out[customer] = loc
	}
	return out, nil
}

func (c *CustomerLocationCache) store(ctx context.Context, found map[string]territory.Location) {
	if len(found) == 0 {
		return
	}
	pipe := c.client.Pipeline()
	for customer, loc := range found {
		data, err := json.Marshal(loc)
		if err != nil {
			continue
		}
		pipe.Set(ctx, cacheKey(customer), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("Failed to cache customer locations", zap.Error(err))
	}
}

// Close closes the Redis client if the cache created it
func (c *CustomerLocationCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
