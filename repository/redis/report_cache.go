package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type reportCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewReportCache stores report payloads under "report:{workspace}:{name}".
// Keys passed to Get and Set must start with the workspace id followed by a colon.
func NewReportCache(client *redislib.Client, ttl time.Duration) repository.ReportCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &reportCache{
		client: client,
		prefix: "report:",
		ttl:    ttl,
	}
}

func (c *reportCache) Get(ctx context.Context, key string, dst any) error {
	result, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return domain.ErrCacheMiss
		}
		return err
	}
	return json.Unmarshal(result, dst)
}

func (c *reportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

// InvalidateWorkspace drops every cached report of the workspace.
func (c *reportCache) InvalidateWorkspace(ctx context.Context, workspaceID string) error {
	if strings.TrimSpace(workspaceID) == "" {
		return nil
	}

	pattern := c.prefix + workspaceID + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
