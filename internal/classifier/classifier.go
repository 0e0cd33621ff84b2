// Package classifier turns a user message into a ranked list of intents.
package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-chatbot/internal/common/config"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/common/metrics"
	"rental-chatbot/pkg/vocabulary"
)

// Intent names a classifier may return.
const (
	IntentGreet          = "greet"
	IntentGoodbye        = "goodbye"
	IntentBrandPref      = "brand_pref"
	IntentCategoryPref   = "category_pref"
	IntentPricePref      = "price_pref"
	IntentRecommendation = "recommendation"
	IntentQuestion       = "question"
)

// KnownIntents is the closed label set, in tie-break order.
var KnownIntents = []string{
	IntentGreet,
	IntentGoodbye,
	IntentBrandPref,
	IntentCategoryPref,
	IntentPricePref,
	IntentRecommendation,
	IntentQuestion,
}

// IntentScore is one (intent, confidence) pair.
type IntentScore struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Entity is a span recognised in the message.
type Entity struct {
	Entity string `json:"entity"`
	Value  string `json:"value"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// Result is the classification of one message. Ranking covers every intent the classifier knows.
type Result struct {
	Intent   IntentScore   `json:"intent"`
	Ranking  []IntentScore `json:"intent_ranking"`
	Entities []Entity      `json:"entities"`
}

// Confidence looks up an intent in the ranking.
func (r *Result) Confidence(name string) (float64, bool) {
	for _, s := range r.Ranking {
		if s.Name == name {
			return s.Confidence, true
		}
	}
	return 0, false
}

// Classifier is the intent recognition boundary of the dialogue engine.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

// Func adapts a function to Classifier.
type Func func(ctx context.Context, text string) (*Result, error)

func (f Func) Classify(ctx context.Context, text string) (*Result, error) { return f(ctx, text) }

// timed records classification latency per mode.
type timed struct {
	next Classifier
	mode string
}

func (t *timed) Classify(ctx context.Context, text string) (*Result, error) {
	start := time.Now()
	res, err := t.next.Classify(ctx, text)
	metrics.ClassifierDuration.WithLabelValues(t.mode).Observe(time.Since(start).Seconds())
	return res, err
}

// New builds the classifier selected by cfg.Mode. rdb may be nil when the cache is disabled.
func New(cfg config.ClassifierConfig, vocab *vocabulary.Vocabulary, rdb *redis.Client, log logger.Logger) (Classifier, error) {
	var c Classifier
	switch cfg.Mode {
	case "keyword", "":
		c = NewKeywordClassifier(vocab)
	case "http":
		c = NewHTTPClassifier(&HTTPConfig{
			BaseURL:    cfg.BaseURL,
			Timeout:    config.GetDuration(cfg.Timeout),
			MaxRetries: cfg.MaxRetries,
		}, log)
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.Mode)
	}

	mode := cfg.Mode
	if mode == "" {
		mode = "keyword"
	}
	c = &timed{next: c, mode: mode}

	if cfg.Cache.Enabled {
		if rdb == nil {
			return nil, fmt.Errorf("classifier cache enabled without a redis client")
		}
		c = NewCache(c, rdb, time.Duration(cfg.Cache.TTL)*time.Second, log)
	}
	return c, nil
}
