package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/common/metrics"
)

// CacheKeyPrefix prefixes every cached classification.
const CacheKeyPrefix = "classify:"

// Cache stores classification results in Redis. Redis failures fall through to the wrapped
// classifier and are only logged.
type Cache struct {
	next   Classifier
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(next Classifier, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "classifier-cache"}),
	}
}

func (c *Cache) Classify(ctx context.Context, text string) (*Result, error) {
	key := CacheKeyPrefix + text

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var res Result
		if jerr := json.Unmarshal([]byte(val), &res); jerr == nil {
			metrics.ClassifierCache.WithLabelValues("hit").Inc()
			return &res, nil
		}
		metrics.ClassifierCache.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.ClassifierCache.WithLabelValues("miss").Inc()
	default:
		metrics.ClassifierCache.WithLabelValues("error").Inc()
		c.logger.Warn("classifier cache read failed", map[string]interface{}{"error": err.Error()})
	}

	res, err := c.next.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(res)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("classifier cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return res, nil
}
