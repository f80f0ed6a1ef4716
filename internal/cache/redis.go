package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pavelanni/worksheet/internal/model"
)

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a cache backed by Redis, shared between server instances.
// Parsed worksheets are stored as JSON and expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) WorksheetCache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) key(id int64) string {
	return fmt.Sprintf("worksheet:parsed:%d", id)
}

func (c *redisCache) Get(ctx context.Context, id int64) (*model.ParsedWorksheet, error) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ws model.ParsedWorksheet
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("decode cached worksheet %d: %w", id, err)
	}
	return &ws, nil
}

func (c *redisCache) Set(ctx context.Context, id int64, ws *model.ParsedWorksheet) error {
	data, err := json.Marshal(ws)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(id), data, c.ttl).Err()
}
