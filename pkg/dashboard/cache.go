package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/renalview/monitor/pkg/common/logger"
	"github.com/renalview/monitor/pkg/observability/metrics"
)

// Cache holds assembled patient dashboards in Redis. The cycle number is
// part of the key, so an advance or reset naturally computes fresh keys and
// stale entries age out by TTL. Cache trouble is logged and treated as a
// miss; it never reaches the user. A nil Cache or a zero TTL disables it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func cacheKey(patientID string, cycle int) string {
	return fmt.Sprintf("dashboard:patient:%s:cycle:%d", patientID, cycle)
}

func (c *Cache) get(ctx context.Context, key string, out interface{}) bool {
	if !c.enabled() {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.WithComponent("dashboard-cache").WithError(err).WithField("key", key).Warn("dashboard cache read failed")
		}
		metrics.IncCacheMiss()
		return false
	}
	if err := json.Unmarshal(payload, out); err != nil {
		logger.WithComponent("dashboard-cache").WithError(err).WithField("key", key).Warn("dashboard cache entry corrupt")
		metrics.IncCacheMiss()
		return false
	}
	metrics.IncCacheHit()
	return true
}

func (c *Cache) set(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		logger.WithComponent("dashboard-cache").WithError(err).WithField("key", key).Warn("dashboard cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.WithComponent("dashboard-cache").WithError(err).WithField("key", key).Warn("dashboard cache write failed")
	}
}
