package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "holidays:"

// CacheStore is the key/value surface the holiday cache needs
type CacheStore interface {
	// Get returns ok=false on a miss
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to CacheStore
type RedisStore struct {
	rdb *goredis.Client
}

// RedisOptions configures NewRedisStore
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore connects and pings the server
func NewRedisStore(opts RedisOptions, logger *zap.Logger) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("Redis connected", zap.String("addr", opts.Addr))

	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Close closes the redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// RedisCache wraps a HolidayResolver with a shared cache. Cache failures are
// logged and never fail a lookup. Unsupported regions are not cached.
type RedisCache struct {
	next   HolidayResolver
	store  CacheStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a new RedisCache
func NewRedisCache(next HolidayResolver, store CacheStore, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (rc *RedisCache) Resolve(ctx context.Context, country, state string, year int) (Holidays, error) {
	key := cacheKey(country, state, year)

	value, ok, err := rc.store.Get(ctx, key)
	switch {
	case err != nil:
		rc.logger.Warn("Holiday cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		var holidays Holidays
		if err := json.Unmarshal([]byte(value), &holidays); err == nil {
			rc.logger.Debug("Using cached holidays", zap.String("key", key))
			return holidays, nil
		}
		rc.logger.Warn("Discarding corrupt cache entry", zap.String("key", key))
	}

	holidays, err := rc.next.Resolve(ctx, country, state, year)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(holidays)
	if err == nil {
		err = rc.store.Set(ctx, key, string(data), rc.ttl)
	}
	if err != nil {
		rc.logger.Warn("Holiday cache write failed", zap.String("key", key), zap.Error(err))
	}

	return holidays, nil
}

func cacheKey(country, state string, year int) string {
	return fmt.Sprintf("%s%s:%s:%d", redisKeyPrefix,
		strings.ToUpper(strings.TrimSpace(country)),
		strings.ToUpper(strings.TrimSpace(state)),
		year)
}
