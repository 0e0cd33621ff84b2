// Package app wires the catalog, vocabulary and classifier selected by the configuration.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"rental-chatbot/internal/catalog"
	"rental-chatbot/internal/classifier"
	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/database"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/dialogue"
	"rental-chatbot/internal/preference"
	"rental-chatbot/internal/session"
	"rental-chatbot/pkg/vocabulary"
)

// Components are the process-wide read-only collaborators shared by every conversation.
type Components struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Vocabulary *vocabulary.Vocabulary
	Classifier classifier.Classifier
	Redis      *redis.Client
}

// Build loads the catalog and the vocabulary and builds the classifier. Redis is only
// connected when the classifier cache is enabled.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Components, error) {
	cat, err := catalog.Load(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	vocab, err := vocabulary.Build(cfg.Vocabulary.Path, cat.Brands(), cat.Categories())
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	c := &Components{Config: cfg, Catalog: cat, Vocabulary: vocab}

	if cfg.Classifier.Cache.Enabled {
		c.Redis, err = database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	c.Classifier, err = classifier.New(cfg.Classifier, vocab, c.Redis, log)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	log.Info("chatbot components ready", map[string]interface{}{
		"products":       cat.Len(),
		"brands":         len(cat.Brands()),
		"categories":     len(cat.Categories()),
		"classifierMode": cfg.Classifier.Mode,
		"cache":          cfg.Classifier.Cache.Enabled,
	})
	return c, nil
}

// NewEngine starts a conversation with its own preference model.
func (c *Components) NewEngine(log logger.Logger) (*dialogue.Engine, error) {
	return dialogue.New(
		dialogue.ConfigFrom(c.Config.Dialogue),
		preference.NewModel(c.Catalog),
		c.Classifier,
		c.Vocabulary,
		dialogue.NewRand(c.Config.Dialogue.Seed),
		log,
	)
}

// SessionFactory builds engines for the session registry.
func (c *Components) SessionFactory() session.Factory {
	return session.EngineFactory(c.Catalog, c.Classifier, c.Vocabulary, dialogue.ConfigFrom(c.Config.Dialogue), c.Config.Dialogue.Seed)
}

func (c *Components) Close() error {
	if c.Redis != nil {
		return c.Redis.Close()
	}
	return nil
}
