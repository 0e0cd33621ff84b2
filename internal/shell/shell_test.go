package shell

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/internal/catalog"
	"rental-chatbot/internal/classifier"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/dialogue"
	"rental-chatbot/internal/preference"
)

type firstPhrase struct{}

func (firstPhrase) Intn(int) int { return 0 }

func newTestEngine(t *testing.T) *dialogue.Engine {
	t.Helper()
	cat, err := catalog.New(catalog.DefaultColumns, []catalog.Row{
		{ProductName: "iPhone X", Brand: "Apple", Category: "Phones & Tablets", Price: 30},
		{ProductName: "Galaxy S9", Brand: "Samsung", Category: "Phones & Tablets", Price: 25},
		{ProductName: "Bebop 2", Brand: "Parrot", Category: "Drones", Price: 50},
	})
	require.NoError(t, err)

	e, err := dialogue.New(dialogue.DefaultConfig(), preference.NewModel(cat), classifier.NewKeywordClassifier(nil), nil, firstPhrase{}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return e
}

func run(t *testing.T, e *dialogue.Engine, input string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, New(e, strings.NewReader(input), &out).Run(context.Background()))
	return out.String()
}

func TestShell_Conversation(t *testing.T) {
	e := newTestEngine(t)

	out := run(t, e, "hello\nI want a phone\nbye\nhello again\n")

	assert.True(t, strings.HasPrefix(out, "\nHow can I help you?\n\n» "))
	assert.Contains(t, out, "hi!\n\n")
	assert.Contains(t, out, "So you want to rent Phones & Tablets.\n\n")
	assert.Contains(t, out, "What brand do you prefer?\nWe have Apple and Samsung\n\n")
	assert.Contains(t, out, "bye bye\n\n")
	assert.Equal(t, 3, strings.Count(out, Prompt), "shell stops after goodbye")
}

func TestShell_DebugMode(t *testing.T) {
	e := newTestEngine(t)

	out := run(t, e, ":debug\nhello\n!debug\n")

	assert.Contains(t, out, "debug mode: on\n")
	assert.Contains(t, out, "intent: greet=")
	assert.Contains(t, out, "intent_ranking: greet=")
	assert.Contains(t, out, "hi! (greet)\n\n")
	assert.Contains(t, out, "debug mode: off\n")
	assert.False(t, e.Debug())
}

func TestShell_Get(t *testing.T) {
	e := newTestEngine(t)

	out := run(t, e, "I want a phone\n:get category\n:get expected\n:get possible brands\n:price range\n:get model\n:get nothing\n")

	assert.Contains(t, out, "\nPhones & Tablets\n\n")
	assert.Contains(t, out, "\nbrand_pref\n\n")
	assert.Contains(t, out, "\nApple, Samsung\n\n")
	assert.Contains(t, out, "\n25 - 50\n\n")
	assert.Contains(t, out, "Category: Phones & Tablets\nBrand: Apple=unset, Samsung=unset, Parrot=unset\nPrice: unset")
	assert.Contains(t, out, "cannot find identifier: nothing\n")
}

func TestShell_ExitAndBlankLines(t *testing.T) {
	e := newTestEngine(t)

	out := run(t, e, "\n   \n:exit\nhello\n")

	assert.NotContains(t, out, "hi!")
	assert.Equal(t, 3, strings.Count(out, Prompt))
}

func TestShell_Help(t *testing.T) {
	out := run(t, newTestEngine(t), ":help\n:\n")

	assert.Equal(t, 2, strings.Count(out, "commands: :debug, :get <name>, :help, :exit"))
}

func TestShell_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(newTestEngine(t), strings.NewReader("hello\n"), &out).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		line string
		cmd  string
		ok   bool
	}{
		{":debug", "debug", true},
		{"!get price", "get price", true},
		{"hello", "", false},
	}
	for _, tt := range tests {
		cmd, ok := command(tt.line)
		assert.Equal(t, tt.cmd, cmd)
		assert.Equal(t, tt.ok, ok)
	}
}
