package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vidshare/internal/model"
)

const (
	// UserCachePrefix is the key prefix for cached user rows
	UserCachePrefix = "user:"

	// UserCacheTTL bounds memory use; rows never change after creation.
	UserCacheTTL = 24 * time.Hour
)

// UserCache keeps user rows so creator resolution can skip the row store.
type UserCache interface {
	// GetMany returns the cached users among ids, keyed by id.
	// Missing ids are simply absent from the result.
	GetMany(ctx context.Context, ids []string) (map[string]*model.User, error)

	// SetMany stores users with a fresh TTL in one pipeline.
	SetMany(ctx context.Context, users []model.User) error
}

// RedisUserCache implements UserCache with one string key per user.
type RedisUserCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewUserCache(client *redis.Client, logger *zap.Logger) UserCache {
	return &RedisUserCache{client: client, logger: logger}
}

func userKey(id string) string {
	return UserCachePrefix + id
}

// GetMany reads all ids with a single MGET.
func (c *RedisUserCache) GetMany(ctx context.Context, ids []string) (map[string]*model.User, error) {
	found := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	startTime := time.Now()
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("user cache get failed", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("get cached users: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			c.logger.Warn("user cache entry unreadable", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		found[ids[i]] = &u
	}

	c.logger.Debug("user cache get",
		zap.Int("requested", len(ids)),
		zap.Int("hits", len(found)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return found, nil
}

// SetMany writes users using a pipeline: SET with TTL per user.
func (c *RedisUserCache) SetMany(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, u := range users {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal user %s: %w", u.ID, err)
		}
		pipe.Set(ctx, userKey(u.ID), data, UserCacheTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("user cache set failed", zap.Int("users", len(users)), zap.Error(err))
		return fmt.Errorf("cache users: %w", err)
	}
	return nil
}
