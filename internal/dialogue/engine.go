// Package dialogue resolves classified user intents into preference updates and bot replies.
package dialogue

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"rental-chatbot/internal/classifier"
	"rental-chatbot/internal/common/config"
	apperrors "rental-chatbot/internal/common/errors"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/common/metrics"
	"rental-chatbot/internal/preference"
	"rental-chatbot/pkg/vocabulary"
)

// IntentUnknown is the user intent forced when the resolved confidence is too low.
const IntentUnknown = "unknown"

// Bot intents carried by a Reply.
const (
	BotInfo           = "info"
	BotGreet          = "greet"
	BotGoodbye        = "goodbye"
	BotUnknown        = "unknown"
	BotRecommendation = "recommendation"
	BotQuestion       = "question"
	BotAnswer         = "answer"
)

const (
	DefaultConfidenceThreshold = 0.3
	DefaultExpectationBoost    = 1.5
	DefaultBrandFactor         = 2.0
)

// NoMatchText is the recommendation reply when the filters leave no product.
const NoMatchText = "Sorry, nothing in our catalog matches your preferences."

var tracer = otel.Tracer("rental-chatbot/dialogue")

// Config tunes an Engine.
type Config struct {
	ConfidenceThreshold float64
	ExpectationBoost    float64
	BrandFactor         float64
	Debug               bool
	Phrases             Phrases
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ExpectationBoost:    DefaultExpectationBoost,
		BrandFactor:         DefaultBrandFactor,
		Phrases:             DefaultPhrases(),
	}
}

// ConfigFrom converts the dialogue section of the application config. Zero values take the
// defaults.
func ConfigFrom(c config.DialogueConfig) Config {
	cfg := DefaultConfig()
	if c.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = c.ConfidenceThreshold
	}
	if c.ExpectationBoost > 0 {
		cfg.ExpectationBoost = c.ExpectationBoost
	}
	if c.BrandFactor > 0 {
		cfg.BrandFactor = c.BrandFactor
	}
	cfg.Debug = c.Debug
	return cfg
}

// Reply is one bot utterance. An empty Intent means the engine has nothing to say and the
// caller should fall back to a question or a recommendation.
type Reply struct {
	Intent string `json:"intent"`
	Text   string `json:"text"`
	Debug  *Trace `json:"debug,omitempty"`
}

// Empty reports whether the reply carries no intent.
func (r Reply) Empty() bool { return r.Intent == "" }

// Ends reports whether the reply closes the conversation.
func (r Reply) Ends() bool { return r.Intent == BotGoodbye }

// Trace shows how a message was interpreted. It is attached to replies in debug mode.
type Trace struct {
	Message    string                   `json:"message"`
	Classified classifier.IntentScore   `json:"classified"`
	Resolved   classifier.IntentScore   `json:"resolved"`
	Expected   string                   `json:"expected,omitempty"`
	Ranking    []classifier.IntentScore `json:"intent_ranking"`
	Entities   []classifier.Entity      `json:"entities"`
}

type handlerFunc func(msg string) (Reply, error)

// Engine runs one conversation. It owns its preference model and is not safe for concurrent
// use; callers serialise turns.
type Engine struct {
	config     Config
	model      *preference.Model
	classifier classifier.Classifier
	vocab      *vocabulary.Vocabulary
	rnd        Source
	logger     logger.Logger

	handlers map[string]handlerFunc
	expected string
	debug    bool
}

// New builds an engine over model. vocab defaults to the catalog vocabulary when nil and must
// only name catalog brands and categories. rnd defaults to a clock seeded source.
func New(cfg Config, model *preference.Model, clf classifier.Classifier, vocab *vocabulary.Vocabulary, rnd Source, log logger.Logger) (*Engine, error) {
	if model == nil || clf == nil {
		return nil, errors.New("dialogue engine needs a preference model and a classifier")
	}
	if vocab == nil {
		vocab = vocabulary.Default(model.Brands(), model.Categories())
	}
	if err := vocab.Validate(model.Brands(), model.Categories()); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVocabularyInvalid, err)
	}
	if rnd == nil {
		rnd = NewRand(0)
	}
	cfg.Phrases = cfg.Phrases.withDefaults()

	e := &Engine{
		config:     cfg,
		model:      model,
		classifier: clf,
		vocab:      vocab,
		rnd:        rnd,
		logger:     log,
		debug:      cfg.Debug,
	}
	e.handlers = map[string]handlerFunc{
		classifier.IntentGreet:          e.greet,
		classifier.IntentGoodbye:        e.goodbye,
		IntentUnknown:                   e.unknown,
		classifier.IntentBrandPref:      e.brandPref,
		classifier.IntentCategoryPref:   e.categoryPref,
		classifier.IntentPricePref:      e.pricePref,
		classifier.IntentRecommendation: e.recommendation,
		classifier.IntentQuestion:       e.question,
	}
	return e, nil
}

func (e *Engine) Model() *preference.Model { return e.model }

// Expected returns the intent the last question asked for, or "".
func (e *Engine) Expected() string { return e.expected }

func (e *Engine) Debug() bool { return e.debug }

func (e *Engine) SetDebug(on bool) { e.debug = on }

// ProcessMessage classifies text, resolves the intent and runs its handler. It never fails: a
// classifier failure or a broken ranking yields an "unknown" reply, an intent without handler
// yields an empty reply.
func (e *Engine) ProcessMessage(ctx context.Context, text string) Reply {
	ctx, span := tracer.Start(ctx, "dialogue.ProcessMessage")
	defer span.End()

	msg := normalize(text)
	reply, trace := e.resolve(ctx, msg)

	if reply.Intent != BotQuestion {
		e.expected = ""
	}

	label := reply.Intent
	if label == "" {
		label = "none"
	}
	metrics.TurnsTotal.WithLabelValues(label).Inc()
	span.SetAttributes(
		attribute.String("dialogue.intent", trace.Resolved.Name),
		attribute.Float64("dialogue.confidence", trace.Resolved.Confidence),
		attribute.String("dialogue.reply", label),
	)

	if e.debug {
		reply.Debug = trace
	}
	return reply
}

func (e *Engine) resolve(ctx context.Context, msg string) (Reply, *Trace) {
	trace := &Trace{Message: msg, Expected: e.expected}

	res, err := e.classifier.Classify(ctx, msg)
	if err != nil {
		e.logger.Error("intent classification failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(apperrors.Normalize(err).Code),
		})
		metrics.FallbacksTotal.WithLabelValues("classifier").Inc()
		span := oteltrace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		trace.Resolved = classifier.IntentScore{Name: IntentUnknown}
		return e.fallback(), trace
	}

	trace.Classified = res.Intent
	trace.Ranking = res.Ranking
	trace.Entities = res.Entities

	intent, confidence := res.Intent.Name, res.Intent.Confidence
	if e.expected != "" {
		ranked, ok := res.Confidence(e.expected)
		if !ok {
			e.logger.Error("classifier ranking misses the expected intent", map[string]interface{}{
				"error":    apperrors.ErrMissingRankingEntry.Error(),
				"expected": e.expected,
				"intent":   intent,
			})
			metrics.FallbacksTotal.WithLabelValues("missing_ranking_entry").Inc()
			trace.Resolved = classifier.IntentScore{Name: IntentUnknown}
			return e.fallback(), trace
		}
		if boosted := ranked * e.config.ExpectationBoost; boosted > confidence {
			intent, confidence = e.expected, boosted
		}
	}

	if confidence < e.config.ConfidenceThreshold {
		intent = IntentUnknown
	}
	trace.Resolved = classifier.IntentScore{Name: intent, Confidence: confidence}

	handler, ok := e.handlers[intent]
	if !ok {
		e.logger.Warn("no response defined for intent", map[string]interface{}{
			"error":      apperrors.ErrUnhandledIntent.Error(),
			"intent":     intent,
			"confidence": confidence,
		})
		metrics.FallbacksTotal.WithLabelValues("unhandled_intent").Inc()
		return Reply{}, trace
	}

	reply, err := handler(msg)
	if err != nil {
		e.logger.Error("intent handler failed", map[string]interface{}{
			"error":  err.Error(),
			"intent": intent,
		})
		metrics.FallbacksTotal.WithLabelValues("handler").Inc()
		return e.fallback(), trace
	}
	return reply, trace
}

func (e *Engine) fallback() Reply {
	return Reply{Intent: BotUnknown, Text: pick(e.rnd, e.config.Phrases.Unknown)}
}

// Respond runs a full turn: an info reply is emitted and the turn goes on, an empty reply falls
// back to a question and then to a recommendation. The last reply is never empty.
func (e *Engine) Respond(ctx context.Context, text string) []Reply {
	var out []Reply

	reply := e.ProcessMessage(ctx, text)
	if reply.Intent == BotInfo {
		out = append(out, reply)
		reply = Reply{}
	}
	if reply.Empty() {
		reply = e.GenerateQuestion()
	}
	if reply.Empty() {
		reply = e.Recommend()
	}
	return append(out, reply)
}

// GenerateQuestion asks for the first missing slot: category, then brand, then price. It sets
// the expectation to the slot asked for and returns an empty reply when nothing is missing.
func (e *Engine) GenerateQuestion() Reply {
	if _, ok := e.model.Category(); !ok && len(e.model.PossibleCategories()) > 1 {
		e.expected = classifier.IntentCategoryPref
		return Reply{Intent: BotQuestion, Text: "What do you want to rent?"}
	}

	if brands := e.model.PossibleBrands(); !e.model.HasPositiveBrand() && len(brands) > 1 {
		e.expected = classifier.IntentBrandPref
		return Reply{Intent: BotQuestion, Text: "What brand do you prefer?\nWe have " + renderEnum(brands)}
	}

	if _, ok := e.model.Price(); !ok {
		low, high, err := e.model.PossiblePriceRange()
		if err == nil && low != high {
			e.expected = classifier.IntentPricePref
			return Reply{
				Intent: BotQuestion,
				Text:   fmt.Sprintf("We have offers between %s and %s.\nWhat do you have in mind?", formatNumber(low), formatNumber(high)),
			}
		}
	}

	return Reply{}
}

// Recommend names the best scoring product, or says that nothing matches.
func (e *Engine) Recommend() Reply {
	recs, err := e.model.ComputeRecommendations()
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmptyResult) {
			e.logger.Error("recommendation failed", map[string]interface{}{"error": err.Error()})
		}
		metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		return Reply{Intent: BotRecommendation, Text: NoMatchText}
	}
	metrics.RecommendationsTotal.WithLabelValues("found").Inc()
	return Reply{Intent: BotRecommendation, Text: "I recommend the " + recs[0].ProductName + "."}
}
