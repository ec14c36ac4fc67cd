package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xbojch/domainparser/config"
)

// RedisConfig contains the configuration needed to act as a Redis client.
type RedisConfig struct {
	// ShardAddrs is a map of shard names to IP address:port pairs. The
	// go-redis Ring client shards reads and writes across the provided
	// servers based on a consistent hashing algorithm.
	ShardAddrs map[string]string `validate:"required,min=1,dive,hostname_port"`

	// Username used to authenticate to each Redis instance.
	Username string

	// Password used to authenticate to each Redis instance.
	Password string

	// Timeout is a per-request timeout applied to all Redis requests.
	Timeout config.Duration `validate:"-"`
}

// Redis is a Cache backed by a Redis ring.
type Redis struct {
	ring *redis.Ring
}

// NewRedis builds a Redis cache from the given configuration.
func NewRedis(cfg RedisConfig) *Redis {
	timeout := cfg.Timeout.Duration
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Redis{
		ring: redis.NewRing(&redis.RingOptions{
			Addrs:        cfg.ShardAddrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
	}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.ring.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.ring.Set(ctx, key, value, ttl).Err()
}

// Ping verifies connectivity to every shard.
func (r *Redis) Ping(ctx context.Context) error {
	return r.ring.Ping(ctx).Err()
}
