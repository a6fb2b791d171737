// Package events announces which cached views became stale after a change to
// the client tag set. Subscribers (other API replicas, dashboards) refetch the
// listed views; the core never caches them itself.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel stale-view events go to.
const DefaultChannel = "schools:stale"

// StaleViews is published after a tag mutation that changed the tag set.
type StaleViews struct {
	SchoolID string    `json:"school_id"`
	Op       string    `json:"op"`
	Views    []string  `json:"views"`
	At       time.Time `json:"at"`
}

// Publisher delivers stale-view events.
type Publisher interface {
	PublishStale(ctx context.Context, ev StaleViews) error
}

// redisPublisher is the subset of redis.Cmdable used by RedisPublisher.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes events as JSON on a Redis channel.
type RedisPublisher struct {
	rdb     redisPublisher
	channel string
}

// NewRedisPublisher constructs a RedisPublisher. An empty channel selects
// DefaultChannel.
func NewRedisPublisher(rdb redisPublisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// PublishStale marshals ev and publishes it.
func (p *RedisPublisher) PublishStale(ctx context.Context, ev StaleViews) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events.RedisPublisher.PublishStale: marshal: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("events.RedisPublisher.PublishStale: %w", err)
	}
	return nil
}

// LogPublisher writes events to a structured logger. It is used when no
// Redis is configured, e.g. for the CLI and local development.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher constructs a LogPublisher. A nil logger selects slog.Default().
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &LogPublisher{log: log}
}

// PublishStale logs ev at info level. It never fails.
func (p *LogPublisher) PublishStale(ctx context.Context, ev StaleViews) error {
	p.log.InfoContext(ctx, "views stale",
		"school_id", ev.SchoolID,
		"op", ev.Op,
		"views", ev.Views,
	)
	return nil
}

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("events.NewRedisClient: parse url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("events.NewRedisClient: ping: %w", err)
	}
	return rdb, nil
}
