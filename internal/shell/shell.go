// Package shell is the interactive line interface of the chatbot.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rental-chatbot/internal/classifier"
	"rental-chatbot/internal/dialogue"
)

const (
	Prompt = "» "
	Intro  = "How can I help you?"
)

// escapes start a shell command instead of a message to the bot.
var escapes = []string{":", "!"}

type Shell struct {
	engine *dialogue.Engine
	in     *bufio.Scanner
	out    io.Writer
}

func New(engine *dialogue.Engine, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		engine: engine,
		in:     bufio.NewScanner(in),
		out:    out,
	}
}

// Run reads lines until the bot says goodbye, the user exits, the input ends or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "\n%s\n\n", Intro)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, Prompt)
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		var stop bool
		if cmd, ok := command(line); ok {
			stop = s.exec(cmd)
		} else {
			stop = s.say(ctx, line)
		}
		if stop {
			return nil
		}
	}
}

func command(line string) (string, bool) {
	for _, e := range escapes {
		if strings.HasPrefix(line, e) {
			return strings.TrimSpace(line[len(e):]), true
		}
	}
	return "", false
}

// say sends a message to the bot and reports whether the conversation ended.
func (s *Shell) say(ctx context.Context, line string) bool {
	fmt.Fprintln(s.out)

	replies := s.engine.Respond(ctx, line)
	for _, r := range replies {
		if r.Debug != nil {
			s.printTrace(r.Debug)
		}
		if s.engine.Debug() {
			fmt.Fprintf(s.out, "%s (%s)\n\n", r.Text, r.Intent)
		} else {
			fmt.Fprintf(s.out, "%s\n\n", r.Text)
		}
	}
	return len(replies) > 0 && replies[len(replies)-1].Ends()
}

func (s *Shell) printTrace(t *dialogue.Trace) {
	fmt.Fprintf(s.out, "entities: %s\n", formatEntities(t.Entities))
	fmt.Fprintf(s.out, "intent: %s\n", formatScore(t.Classified))
	if t.Resolved != t.Classified {
		fmt.Fprintf(s.out, "resolved: %s (expected %s)\n", formatScore(t.Resolved), t.Expected)
	}
	scores := make([]string, 0, len(t.Ranking))
	for _, r := range t.Ranking {
		scores = append(scores, formatScore(r))
	}
	fmt.Fprintf(s.out, "intent_ranking: %s\n\n", strings.Join(scores, ", "))
}

// exec runs a shell command and reports whether the shell should stop.
func (s *Shell) exec(cmd string) bool {
	name, arg, _ := strings.Cut(cmd, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "exit", "quit":
		return true
	case "debug":
		s.engine.SetDebug(!s.engine.Debug())
		state := "off"
		if s.engine.Debug() {
			state = "on"
		}
		fmt.Fprintf(s.out, "debug mode: %s\n", state)
	case "help", "":
		fmt.Fprintln(s.out, "commands: :debug, :get <name>, :help, :exit")
		fmt.Fprintln(s.out, "names: category, brand, price, price range, possible brands, possible categories, expected, model")
	case "get":
		s.get(arg)
	default:
		s.get(cmd)
	}
	return false
}

func (s *Shell) get(name string) {
	value, ok := s.lookup(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	if !ok {
		fmt.Fprintf(s.out, "cannot find identifier: %s\n", name)
		return
	}
	fmt.Fprintf(s.out, "\n%s\n\n", value)
}

func (s *Shell) lookup(name string) (string, bool) {
	m := s.engine.Model()
	switch name {
	case "category", "category_pref":
		if c, ok := m.Category(); ok {
			return c, true
		}
		return "unset", true
	case "brand", "brand_pref":
		weights := make([]string, 0)
		for _, b := range m.Brands() {
			w, _ := m.BrandWeight(b)
			weights = append(weights, b+"="+w.String())
		}
		return strings.Join(weights, ", "), true
	case "price", "price_pref":
		if p, ok := m.Price(); ok {
			return formatFloat(p), true
		}
		return "unset", true
	case "price_range":
		low, high := m.PriceRange()
		return fmt.Sprintf("%s - %s", formatFloat(low), formatFloat(high)), true
	case "possible_brands":
		return strings.Join(m.PossibleBrands(), ", "), true
	case "possible_categories":
		return strings.Join(m.PossibleCategories(), ", "), true
	case "expected", "expected_intent":
		if e := s.engine.Expected(); e != "" {
			return e, true
		}
		return "none", true
	case "model", "pref_model":
		return m.String(), true
	case "debug":
		return strconv.FormatBool(s.engine.Debug()), true
	}
	return "", false
}

func formatScore(s classifier.IntentScore) string {
	return fmt.Sprintf("%s=%.2f", s.Name, s.Confidence)
}

func formatEntities(entities []classifier.Entity) string {
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		parts = append(parts, fmt.Sprintf("%s:%s", e.Entity, e.Value))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
