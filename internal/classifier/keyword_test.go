package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/pkg/vocabulary"
)

func newTestVocabulary() *vocabulary.Vocabulary {
	return vocabulary.Default(
		[]string{"Apple", "Samsung", "Parrot"},
		[]string{"Phones & Tablets", "Drones"},
	)
}

func TestKeywordClassifier_TopIntent(t *testing.T) {
	k := NewKeywordClassifier(newTestVocabulary())

	tests := []struct {
		text   string
		intent string
	}{
		{"Hello there", IntentGreet},
		{"bye", IntentGoodbye},
		{"I want a phone", IntentCategoryPref},
		{"I like Apple and Samsung", IntentBrandPref},
		{"between 20 and 30 euros", IntentPricePref},
		{"can you recommend something", IntentRecommendation},
		{"which brands do you have?", IntentQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := k.Classify(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.intent, res.Intent.Name)
			assert.GreaterOrEqual(t, res.Intent.Confidence, 0.3)
		})
	}
}

func TestKeywordClassifier_RankingCoversAllIntents(t *testing.T) {
	k := NewKeywordClassifier(nil)

	res, err := k.Classify(context.Background(), "I want a phone")
	require.NoError(t, err)
	require.Len(t, res.Ranking, len(KnownIntents))

	sum := 0.0
	for _, name := range KnownIntents {
		c, ok := res.Confidence(name)
		assert.True(t, ok, name)
		assert.Greater(t, c, 0.0)
		sum += c
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	for i := 1; i < len(res.Ranking); i++ {
		assert.GreaterOrEqual(t, res.Ranking[i-1].Confidence, res.Ranking[i].Confidence)
	}
}

func TestKeywordClassifier_NoSignalIsUniformAndLow(t *testing.T) {
	k := NewKeywordClassifier(newTestVocabulary())

	res, err := k.Classify(context.Background(), "zzz qqq")
	require.NoError(t, err)

	assert.Equal(t, IntentGreet, res.Intent.Name, "ties keep rule order")
	assert.InDelta(t, 1.0/7.0, res.Intent.Confidence, 1e-9)
	assert.Less(t, res.Intent.Confidence, 0.3)
	assert.Empty(t, res.Entities)
}

func TestKeywordClassifier_Entities(t *testing.T) {
	k := NewKeywordClassifier(newTestVocabulary())

	res, err := k.Classify(context.Background(), "A Parrot drone for 30 euros")
	require.NoError(t, err)

	assert.Contains(t, res.Entities, Entity{Entity: "brand", Value: "Parrot", Start: 2, End: 8})
	assert.Contains(t, res.Entities, Entity{Entity: "category", Value: "Drones", Start: 9, End: 14})
	assert.Contains(t, res.Entities, Entity{Entity: "number", Value: "30", Start: 19, End: 21})
}

func TestKeywordClassifier_CustomRules(t *testing.T) {
	k := NewKeywordClassifierWithRules([]Rule{
		{Intent: "a", Keywords: []string{"Foo Bar", "foo bar", ""}},
		{Intent: "b", Keywords: []string{"baz"}},
	}, nil)

	res, err := k.Classify(context.Background(), "foo-bar!")
	require.NoError(t, err)
	assert.Equal(t, "a", res.Intent.Name)
	assert.InDelta(t, 1.1/1.2, res.Intent.Confidence, 1e-9)
}

func TestKeywordClassifier_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeywordClassifier(nil).Classify(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}
