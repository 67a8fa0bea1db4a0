// internal/signals/cache.go
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

const recentCacheTTL = 60 * time.Second

// Cache keeps the recent-signal listing in Redis so the hot read path
// skips Postgres. Entries are invalidated on every append.
type Cache struct {
	client *redis.Client
	logger logger.Logger
}

func NewCache(client *redis.Client, log logger.Logger) *Cache {
	return &Cache{client: client, logger: log}
}

func recentKey(limit int) string {
	return fmt.Sprintf("signals:recent:%d", limit)
}

func (c *Cache) GetRecent(ctx context.Context, limit int) ([]models.Signal, bool) {
	raw, err := c.client.Get(ctx, recentKey(limit)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("recent-signals cache read failed", nil)
		}
		return nil, false
	}

	var signals []models.Signal
	if err := json.Unmarshal([]byte(raw), &signals); err != nil {
		return nil, false
	}
	return signals, true
}

func (c *Cache) SetRecent(ctx context.Context, limit int, signals []models.Signal) {
	raw, err := json.Marshal(signals)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recentKey(limit), raw, recentCacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("recent-signals cache write failed", nil)
	}
}

// Invalidate drops all recent listings after a new signal lands.
func (c *Cache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, "signals:recent:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("recent-signals cache scan failed", nil)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.logger.WithError(err).Warn("recent-signals cache invalidation failed", nil)
		}
	}
}
