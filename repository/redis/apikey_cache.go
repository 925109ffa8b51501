package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/revenue-engine/domain"
	"github.com/fastygo/revenue-engine/repository"
)

type apiKeyCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewAPIKeyCache creates a Redis-backed cache of resolved API keys.
func NewAPIKeyCache(client *redislib.Client, ttl time.Duration) repository.APIKeyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &apiKeyCache{
		client: client,
		prefix: "apikey:",
		ttl:    ttl,
	}
}

func (c *apiKeyCache) Get(ctx context.Context, key string) (*domain.APIKey, error) {
	result, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}

	var apiKey domain.APIKey
	if err := json.Unmarshal([]byte(result), &apiKey); err != nil {
		return nil, err
	}
	return &apiKey, nil
}

func (c *apiKeyCache) Save(ctx context.Context, key *domain.APIKey) error {
	if key == nil || key.Key == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key.Key), payload, c.ttl).Err()
}

func (c *apiKeyCache) key(id string) string {
	return fmt.Sprintf("%s%s", c.prefix, id)
}
