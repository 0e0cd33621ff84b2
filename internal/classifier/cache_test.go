package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func countingClassifier(calls *int) Classifier {
	return Func(func(ctx context.Context, text string) (*Result, error) {
		*calls++
		top := IntentScore{Name: IntentGreet, Confidence: 0.9}
		return &Result{Intent: top, Ranking: []IntentScore{top}}, nil
	})
}

// ==========================
// Cache Tests
// ==========================

func TestCache_MissThenHit(t *testing.T) {
	mr, rdb := setupRedis(t)
	calls := 0
	cache := NewCache(countingClassifier(&calls), rdb, time.Minute, logger.NewTestLogger(t))

	first, err := cache.Classify(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cache.Classify(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("classify:hello"))
	assert.Equal(t, time.Minute, mr.TTL("classify:hello"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_CorruptEntryIsRecomputed(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set("classify:hello", "{not json"))

	calls := 0
	cache := NewCache(countingClassifier(&calls), rdb, time.Minute, logger.NewNoOpLogger())

	res, err := cache.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, IntentGreet, res.Intent.Name)
	assert.Equal(t, 1, calls)
}

func TestCache_RedisFailuresFallThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	calls := 0
	inner := countingClassifier(&calls)
	cache := NewCache(inner, rdb, time.Minute, logger.NewTestLogger(t))

	expected, _ := inner.Classify(context.Background(), "hi")
	calls = 0
	payload, _ := json.Marshal(expected)

	mock.ExpectGet("classify:hi").SetErr(errors.New("connection refused"))
	mock.ExpectSet("classify:hi", payload, time.Minute).SetErr(errors.New("connection refused"))

	res, err := cache.Classify(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, IntentGreet, res.Intent.Name)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_ClassifierErrorIsNotCached(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	failing := Func(func(ctx context.Context, text string) (*Result, error) {
		return nil, errors.New("nlu down")
	})

	mock.ExpectGet("classify:hi").RedisNil()

	_, err := NewCache(failing, rdb, time.Minute, logger.NewNoOpLogger()).Classify(context.Background(), "hi")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Factory Tests
// ==========================

func TestNew(t *testing.T) {
	log := logger.NewNoOpLogger()

	c, err := New(config.ClassifierConfig{Mode: "keyword"}, newTestVocabulary(), nil, log)
	require.NoError(t, err)
	res, err := c.Classify(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, IntentGreet, res.Intent.Name)

	_, err = New(config.ClassifierConfig{Mode: "llm"}, nil, nil, log)
	assert.Error(t, err)

	cacheCfg := config.ClassifierConfig{Mode: "keyword"}
	cacheCfg.Cache.Enabled = true
	_, err = New(cacheCfg, nil, nil, log)
	assert.Error(t, err)

	_, rdb := setupRedis(t)
	cacheCfg.Cache.TTL = 60
	c, err = New(cacheCfg, nil, rdb, log)
	require.NoError(t, err)
	assert.IsType(t, &Cache{}, c)
}
