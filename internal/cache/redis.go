// Package cache holds the shared Redis client and the cache-aside helpers
// used for hot timeline and post reads. The whole package degrades to
// pass-through when Redis is unreachable; nothing here is load-bearing.
package cache

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"minato/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// errorCountingHook feeds command failures into the Redis error counter so a
// flapping cache shows up on the dashboard instead of only in the logs.
type errorCountingHook struct{}

func (h errorCountingHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h errorCountingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h errorCountingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis connects the package client to the given address, which may be a
// bare host:port or a redis:// URL. A failed connection leaves the client nil
// and the API serving uncached.
func InitRedis(addr string) {
	opts, err := parseRedisAddr(addr)
	if err != nil {
		log.Printf("invalid REDIS_URL %q: %v (caching disabled)", addr, err)
		client = nil
		return
	}

	c := redis.NewClient(opts)
	c.AddHook(errorCountingHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable at %s: %v (caching disabled)", addr, err)
		client = nil
		return
	}

	client = c
	log.Printf("redis connected at %s", addr)
}

func parseRedisAddr(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// GetClient returns the shared client, or nil when caching is disabled.
func GetClient() *redis.Client {
	return client
}
