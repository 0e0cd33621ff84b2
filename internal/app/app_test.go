package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/internal/classifier"
	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/dialogue"
)

const testCatalog = "\tProduct Name\tBrand\tCategory\tSubscription Plan\n" +
	"0\tiPhone X\tApple\tPhones & Tablets\t30\n" +
	"1\tGalaxy S9\tSamsung\tPhones & Tablets\t25\n" +
	"2\tBebop 2\tParrot\tDrones\t50\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Catalog.Source = "file"
	cfg.Catalog.Path = writeFile(t, "catalog.tsv", testCatalog)
	cfg.Classifier.Mode = "keyword"
	cfg.Dialogue.Seed = 3
	return cfg
}

func TestBuild_KeywordClassifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vocabulary.Path = writeFile(t, "vocabulary.yaml", "brands:\n  - alias: iphone\n    canonical: Apple\n")

	c, err := Build(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 3, c.Catalog.Len())
	assert.Nil(t, c.Redis)

	e, err := c.NewEngine(logger.NewTestLogger(t))
	require.NoError(t, err)

	replies := e.Respond(context.Background(), "I like the iPhone")
	require.NotEmpty(t, replies)
	assert.Equal(t, dialogue.Reply{Intent: dialogue.BotInfo, Text: "OK, you like Apple."}, replies[0])
}

func TestBuild_ClassifierCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Classifier.Cache.Enabled = true
	cfg.Classifier.Cache.TTL = 60
	cfg.Database.Redis.Address = mr.Addr()

	c, err := Build(context.Background(), cfg, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Redis)
	assert.IsType(t, &classifier.Cache{}, c.Classifier)

	engine, err := c.SessionFactory()(logger.NewNoOpLogger())
	require.NoError(t, err)
	engine.ProcessMessage(context.Background(), "hello")
	assert.True(t, mr.Exists(classifier.CacheKeyPrefix+"hello"))
}

func TestBuild_Errors(t *testing.T) {
	t.Run("missing catalog", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.tsv")
		_, err := Build(context.Background(), cfg, logger.NewNoOpLogger())
		assert.ErrorContains(t, err, "load catalog")
	})

	t.Run("vocabulary names unknown brand", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Vocabulary.Path = writeFile(t, "vocabulary.yaml", "brands:\n  - alias: dji\n    canonical: DJI\n")
		_, err := Build(context.Background(), cfg, logger.NewNoOpLogger())
		assert.ErrorContains(t, err, "load vocabulary")
	})

	t.Run("unknown classifier mode", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Classifier.Mode = "magic"
		_, err := Build(context.Background(), cfg, logger.NewNoOpLogger())
		assert.Error(t, err)
	})
}
