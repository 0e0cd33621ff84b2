package dialogue

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rental-chatbot/pkg/vocabulary"
)

// Source picks phrase indices. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// NewRand returns a seeded random source; seed 0 seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Phrases are the fixed reply sets of the small-talk intents.
type Phrases struct {
	Greet   []string
	Goodbye []string
	Unknown []string
}

// DefaultPhrases returns the built-in phrase sets.
func DefaultPhrases() Phrases {
	return Phrases{
		Greet:   []string{"hi!", "hello", "hey"},
		Goodbye: []string{"bye bye", "bye", "goodbye"},
		Unknown: []string{"I do not understand!", "What?", "Can you phrase that differently?"},
	}
}

func (p Phrases) withDefaults() Phrases {
	d := DefaultPhrases()
	if len(p.Greet) == 0 {
		p.Greet = d.Greet
	}
	if len(p.Goodbye) == 0 {
		p.Goodbye = d.Goodbye
	}
	if len(p.Unknown) == 0 {
		p.Unknown = d.Unknown
	}
	return p
}

// pick chooses one phrase. phrases must not be empty.
func pick(src Source, phrases []string) string {
	return phrases[src.Intn(len(phrases))]
}

// renderEnum joins items as "a, b and c".
func renderEnum(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// numberPattern matches an unsigned number anywhere, also inside a word ("eur20", "iphone7").
var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d*)?`)

// findNumbers extracts the numbers of a message in order. A decimal comma is read as a point. A
// sign directly before a number belongs to it unless a digit precedes the sign, so "-5" is
// negative and "20-30" yields 20 and 30.
func findNumbers(msg string) []float64 {
	var out []float64
	for _, loc := range numberPattern.FindAllStringIndex(msg, -1) {
		s := strings.TrimSuffix(strings.Replace(msg[loc[0]:loc[1]], ",", ".", 1), ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		if i := loc[0] - 1; i >= 0 && msg[i] == '-' && (i == 0 || !isDigit(msg[i-1])) {
			f = -f
		}
		out = append(out, f)
	}
	return out
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// normalize lowercases a message after NFKC folding, so full-width letters and digits read as
// their ASCII forms. Nothing else is rewritten.
func normalize(text string) string {
	return vocabulary.Fold(text)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
