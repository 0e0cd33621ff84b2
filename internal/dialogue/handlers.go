package dialogue

import (
	"fmt"
	"strings"

	"rental-chatbot/internal/classifier"
)

func (e *Engine) greet(string) (Reply, error) {
	return Reply{Intent: BotGreet, Text: pick(e.rnd, e.config.Phrases.Greet)}, nil
}

func (e *Engine) goodbye(string) (Reply, error) {
	return Reply{Intent: BotGoodbye, Text: pick(e.rnd, e.config.Phrases.Goodbye)}, nil
}

func (e *Engine) unknown(string) (Reply, error) {
	return e.fallback(), nil
}

// brandPref raises the weight of every brand named in msg.
func (e *Engine) brandPref(msg string) (Reply, error) {
	brands := e.vocab.MatchBrands(msg)
	if len(brands) == 0 {
		return Reply{Intent: BotInfo, Text: pick(e.rnd, e.config.Phrases.Unknown)}, nil
	}
	for _, b := range brands {
		if err := e.model.AdjustBrandPreference(b, e.config.BrandFactor); err != nil {
			return Reply{}, err
		}
	}
	return Reply{Intent: BotInfo, Text: "OK, you like " + renderEnum(brands) + "."}, nil
}

// categoryPref sets the category of the first alias found in msg.
func (e *Engine) categoryPref(msg string) (Reply, error) {
	category, ok := e.vocab.MatchCategory(msg)
	if !ok {
		return Reply{Intent: BotInfo, Text: pick(e.rnd, e.config.Phrases.Unknown)}, nil
	}
	if err := e.model.SetCategory(category); err != nil {
		return Reply{}, err
	}
	return Reply{Intent: BotInfo, Text: "So you want to rent " + category + "."}, nil
}

// pricePref targets the mean of the first two numbers in msg. Without a number the reply is
// empty so the caller asks a question instead.
func (e *Engine) pricePref(msg string) (Reply, error) {
	numbers := findNumbers(msg)
	if len(numbers) == 0 {
		return Reply{}, nil
	}
	if len(numbers) > 2 {
		numbers = numbers[:2]
	}
	sum := 0.0
	for _, n := range numbers {
		sum += n
	}
	price := sum / float64(len(numbers))
	e.model.SetPrice(price)
	return Reply{Intent: BotInfo, Text: "I assume a price around: " + formatNumber(price)}, nil
}

func (e *Engine) recommendation(string) (Reply, error) {
	return e.Recommend(), nil
}

// question answers about the slot the bot asked for, or the one the message mentions.
func (e *Engine) question(msg string) (Reply, error) {
	topic := e.expected
	if topic == "" {
		switch {
		case strings.Contains(msg, "price"):
			topic = classifier.IntentPricePref
		case strings.Contains(msg, "brand"):
			topic = classifier.IntentBrandPref
		default:
			topic = classifier.IntentCategoryPref
		}
	}

	var text string
	switch topic {
	case classifier.IntentBrandPref:
		brands := renderEnum(e.model.PossibleBrands())
		if category, ok := e.model.Category(); ok {
			text = fmt.Sprintf("For %s we offer %s.", category, brands)
		} else {
			text = "We offer " + brands + "."
		}
	case classifier.IntentPricePref:
		low, high := e.model.PriceRange()
		text = fmt.Sprintf("We offer between %s€ and %s€.", formatNumber(low), formatNumber(high))
	default:
		text = "We offer " + renderEnum(e.model.Categories()) + "."
	}
	return Reply{Intent: BotAnswer, Text: text}, nil
}
