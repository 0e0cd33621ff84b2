package classifier

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"rental-chatbot/pkg/vocabulary"
)

// smoothing keeps every intent in the ranking with a small non-zero confidence.
const smoothing = 0.1

var (
	numberPattern   = regexp.MustCompile(`\d+(?:[.,]\d*)?`)
	questionPattern = regexp.MustCompile(`\?\s*$`)
	currencyPattern = regexp.MustCompile(`€|\beur\b`)
)

// Rule scores an intent by the number of distinct keywords and patterns found in a message.
type Rule struct {
	Intent   string
	Keywords []string
	Patterns []*regexp.Regexp
}

// KeywordClassifier is a rule based classifier that needs no trained model. It returns the
// same response shape as a trained NLU service.
type KeywordClassifier struct {
	rules []Rule
	vocab *vocabulary.Vocabulary
}

// DefaultRules returns the built-in keyword rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:   IntentGreet,
			Keywords: []string{"hi", "hello", "hey", "good morning", "good evening", "howdy", "hallo"},
		},
		{
			Intent:   IntentGoodbye,
			Keywords: []string{"bye", "goodbye", "bye bye", "see you", "ciao", "farewell", "thanks bye"},
		},
		{
			Intent:   IntentBrandPref,
			Keywords: []string{"brand", "prefer", "like", "love", "fan of", "favourite", "favorite"},
		},
		{
			Intent:   IntentCategoryPref,
			Keywords: []string{"rent", "want", "need", "looking for", "interested in", "category"},
		},
		{
			Intent:   IntentPricePref,
			Keywords: []string{"price", "euro", "euros", "budget", "cost", "pay", "around", "between", "cheap", "month"},
			Patterns: []*regexp.Regexp{numberPattern, currencyPattern},
		},
		{
			Intent:   IntentRecommendation,
			Keywords: []string{"recommend", "recommendation", "suggest", "suggestion", "what should", "best", "advice", "show me"},
		},
		{
			Intent:   IntentQuestion,
			Keywords: []string{"what", "which", "do you have", "do you offer", "how much", "tell me"},
			Patterns: []*regexp.Regexp{questionPattern},
		},
	}
}

// NewKeywordClassifier uses the default rules extended with the vocabulary aliases, so brand
// and category words vote for brand_pref and category_pref.
func NewKeywordClassifier(vocab *vocabulary.Vocabulary) *KeywordClassifier {
	rules := DefaultRules()
	if vocab != nil {
		brands, categories := vocab.Aliases()
		for i := range rules {
			switch rules[i].Intent {
			case IntentBrandPref:
				rules[i].Keywords = append(rules[i].Keywords, brands...)
			case IntentCategoryPref:
				rules[i].Keywords = append(rules[i].Keywords, categories...)
			}
		}
	}
	return NewKeywordClassifierWithRules(rules, vocab)
}

// NewKeywordClassifierWithRules builds a classifier over custom rules.
func NewKeywordClassifierWithRules(rules []Rule, vocab *vocabulary.Vocabulary) *KeywordClassifier {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		seen := map[string]struct{}{}
		for _, kw := range r.Keywords {
			kw = tokens(vocabulary.Fold(kw))
			if kw == "" {
				continue
			}
			if _, ok := seen[kw]; ok {
				continue
			}
			seen[kw] = struct{}{}
			kws = append(kws, kw)
		}
		out[i] = Rule{Intent: r.Intent, Keywords: kws, Patterns: r.Patterns}
	}
	return &KeywordClassifier{rules: out, vocab: vocab}
}

// Classify scores every rule and normalises the hit counts into confidences:
// (hits + 0.1) / (total hits + 0.1 * rules). Ties keep rule order.
func (k *KeywordClassifier) Classify(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folded := vocabulary.Fold(text)
	padded := " " + tokens(folded) + " "

	hits := make([]int, len(k.rules))
	total := 0
	for i, r := range k.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(padded, " "+kw+" ") {
				hits[i]++
			}
		}
		for _, p := range r.Patterns {
			if p.MatchString(folded) {
				hits[i]++
			}
		}
		total += hits[i]
	}

	denom := float64(total) + smoothing*float64(len(k.rules))
	ranking := make([]IntentScore, len(k.rules))
	for i, r := range k.rules {
		ranking[i] = IntentScore{Name: r.Intent, Confidence: (float64(hits[i]) + smoothing) / denom}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Confidence > ranking[j].Confidence
	})

	return &Result{
		Intent:   ranking[0],
		Ranking:  ranking,
		Entities: k.entities(folded),
	}, nil
}

func (k *KeywordClassifier) entities(folded string) []Entity {
	var out []Entity
	if k.vocab != nil {
		for _, s := range k.vocab.Brands {
			if i := strings.Index(folded, s.Alias); i >= 0 {
				out = append(out, Entity{Entity: "brand", Value: s.Canonical, Start: i, End: i + len(s.Alias)})
			}
		}
		for _, s := range k.vocab.Categories {
			if i := strings.Index(folded, s.Alias); i >= 0 {
				out = append(out, Entity{Entity: "category", Value: s.Canonical, Start: i, End: i + len(s.Alias)})
			}
		}
	}
	for _, loc := range numberPattern.FindAllStringIndex(folded, -1) {
		out = append(out, Entity{Entity: "number", Value: folded[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return out
}

// tokens reduces text to space separated letter and digit runs.
func tokens(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
