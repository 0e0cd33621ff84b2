package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rental-chatbot/internal/common/config"
)

func configDialogue(threshold, boost, factor float64, debug bool) config.DialogueConfig {
	return config.DialogueConfig{
		ConfidenceThreshold: threshold,
		ExpectationBoost:    boost,
		BrandFactor:         factor,
		Debug:               debug,
	}
}

func TestFindNumbers(t *testing.T) {
	tests := []struct {
		text string
		want []float64
	}{
		{"between 20 and 30 euros", []float64{20, 30}},
		{"about 19,99", []float64{19.99}},
		{"19.5€", []float64{19.5}},
		{"20-30", []float64{20, 30}},
		{"-5 or +7", []float64{-5, 7}},
		{"30.", []float64{30}},
		{"5-7", []float64{5, 7}},
		{"a -3 discount", []float64{-3}},
		{"iphone7", []float64{7}},
		{"eur20", []float64{20}},
		{"x2 y3", []float64{2, 3}},
		{"no numbers here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, findNumbers(tt.text))
		})
	}
}

func TestRenderEnum(t *testing.T) {
	tests := []struct {
		items []string
		want  string
	}{
		{nil, ""},
		{[]string{"Apple"}, "Apple"},
		{[]string{"Apple", "Samsung"}, "Apple and Samsung"},
		{[]string{"Apple", "Samsung", "Parrot"}, "Apple, Samsung and Parrot"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, renderEnum(tt.items))
	}
}

func TestPhrases_WithDefaults(t *testing.T) {
	p := Phrases{Greet: []string{"moin"}}.withDefaults()

	assert.Equal(t, []string{"moin"}, p.Greet)
	assert.Equal(t, DefaultPhrases().Goodbye, p.Goodbye)
	assert.Equal(t, DefaultPhrases().Unknown, p.Unknown)
}

func TestNewRand_SeedIsDeterministic(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Intn(3), b.Intn(3))
	}
	assert.Equal(t, "hey", pick(fixedSource(5), DefaultPhrases().Greet))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"lowercases", "I Want a PHONE", "i want a phone"},
		{"full-width letters", "ＡＰＰＬＥ", "apple"},
		{"full-width digits", "about ２５ euros", "about 25 euros"},
		{"keeps punctuation and accents", "Très bien, 19,90€!", "très bien, 19,90€!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.text))
		})
	}

	assert.Equal(t, []float64{25}, findNumbers(normalize("about ２５ euros")))
}
