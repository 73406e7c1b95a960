// Package redis wraps Redis operations for the synthesis job queue.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const queueKey = "synthesis_jobs"

// Client wraps Redis operations for the job pipeline.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks Redis connectivity.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func lockKey(episodeID string) string {
	return fmt.Sprintf("processing:%s", episodeID)
}

// EnqueueJob adds an episode to the synthesis queue, scored by enqueue
// time so the oldest job is served first.
func (c *Client) EnqueueJob(ctx context.Context, episodeID string) error {
	score := float64(time.Now().UnixNano())
	if err := c.rdb.ZAdd(ctx, queueKey, redis.Z{Score: score, Member: episodeID}).Err(); err != nil {
		return fmt.Errorf("zadd failed: %w", err)
	}
	return nil
}

// DequeueJob pops the oldest episode from the queue.
func (c *Client) DequeueJob(ctx context.Context) (episodeID string, found bool, err error) {
	results, err := c.rdb.ZRangeWithScores(ctx, queueKey, 0, 0).Result()
	if err != nil {
		return "", false, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return "", false, nil
	}

	member, ok := results[0].Member.(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected queue member type %T", results[0].Member)
	}

	if err := c.rdb.ZRem(ctx, queueKey, member).Err(); err != nil {
		return "", false, fmt.Errorf("zrem failed: %w", err)
	}
	return member, true, nil
}

// QueueDepth returns the number of pending jobs.
func (c *Client) QueueDepth(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, queueKey).Result()
}

// AcquireLock attempts to take the processing lock for an episode so a
// job is never synthesized twice concurrently.
func (c *Client) AcquireLock(ctx context.Context, episodeID string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, lockKey(episodeID), "locked", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// ReleaseLock releases the processing lock.
func (c *Client) ReleaseLock(ctx context.Context, episodeID string) error {
	return c.rdb.Del(ctx, lockKey(episodeID)).Err()
}

// RefreshLock extends the TTL of a processing lock.
func (c *Client) RefreshLock(ctx context.Context, episodeID string, ttl time.Duration) error {
	return c.rdb.Expire(ctx, lockKey(episodeID), ttl).Err()
}
