// Package vocabulary holds the synonym tables that map words in a user message to catalog
// brands and categories.
package vocabulary

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Synonym maps a lowercase alias to a canonical catalog value.
type Synonym struct {
	Alias     string `yaml:"alias" json:"alias"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

// Vocabulary is an ordered pair of synonym tables. Order matters: category matching takes the
// first alias found in the message.
type Vocabulary struct {
	Version    string    `yaml:"version,omitempty" json:"version,omitempty"`
	Brands     []Synonym `yaml:"brands" json:"brands"`
	Categories []Synonym `yaml:"categories" json:"categories"`
}

// DefaultCategoryAliases are the domain words recognised besides the category names.
var DefaultCategoryAliases = []Synonym{
	{Alias: "phone", Canonical: "Phones & Tablets"},
	{Alias: "computer", Canonical: "Computing"},
	{Alias: "tablet", Canonical: "Phones & Tablets"},
	{Alias: "gaming", Canonical: "Gaming & VR"},
	{Alias: "vr", Canonical: "Gaming & VR"},
	{Alias: "drone", Canonical: "Drones"},
	{Alias: "watch", Canonical: "Wearables"},
	{Alias: "smartphone", Canonical: "Phones & Tablets"},
	{Alias: "vacuum", Canonical: "Smart Home"},
}

// Fold lowercases text after NFKC normalisation so full-width and composed characters match
// their plain forms.
func Fold(text string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(text))
}

// Default builds the vocabulary of a catalog: every brand and category name in lowercase,
// followed by the default category aliases whose canonical value exists in the catalog.
func Default(brands, categories []string) *Vocabulary {
	v := &Vocabulary{}
	for _, b := range brands {
		v.Brands = append(v.Brands, Synonym{Alias: Fold(b), Canonical: b})
	}
	for _, c := range categories {
		v.Categories = append(v.Categories, Synonym{Alias: Fold(c), Canonical: c})
	}

	known := toSet(categories)
	for _, s := range DefaultCategoryAliases {
		if _, ok := known[s.Canonical]; ok {
			v.Categories = append(v.Categories, s)
		}
	}
	return v
}

// Merge returns base extended by extra. An alias present in both takes extra's canonical value
// and keeps base's position; new aliases are appended in extra's order.
func Merge(base, extra *Vocabulary) *Vocabulary {
	if extra == nil {
		return base
	}
	out := &Vocabulary{Version: base.Version}
	if extra.Version != "" {
		out.Version = extra.Version
	}
	out.Brands = mergeTable(base.Brands, extra.Brands)
	out.Categories = mergeTable(base.Categories, extra.Categories)
	return out
}

func mergeTable(base, extra []Synonym) []Synonym {
	out := make([]Synonym, 0, len(base)+len(extra))
	pos := make(map[string]int, len(base))
	for _, s := range base {
		s.Alias = Fold(s.Alias)
		if i, ok := pos[s.Alias]; ok {
			out[i] = s
			continue
		}
		pos[s.Alias] = len(out)
		out = append(out, s)
	}
	for _, s := range extra {
		s.Alias = Fold(s.Alias)
		if i, ok := pos[s.Alias]; ok {
			out[i] = s
			continue
		}
		pos[s.Alias] = len(out)
		out = append(out, s)
	}
	return out
}

// Validate checks that every canonical value names a catalog brand or category.
func (v *Vocabulary) Validate(brands, categories []string) error {
	var problems []string

	knownBrands := toSet(brands)
	for _, s := range v.Brands {
		if _, ok := knownBrands[s.Canonical]; !ok {
			problems = append(problems, fmt.Sprintf("brand alias %q -> unknown brand %q", s.Alias, s.Canonical))
		}
	}
	knownCategories := toSet(categories)
	for _, s := range v.Categories {
		if _, ok := knownCategories[s.Canonical]; !ok {
			problems = append(problems, fmt.Sprintf("category alias %q -> unknown category %q", s.Alias, s.Canonical))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// MatchBrands returns the canonical brands whose alias occurs in the folded message, in table
// order and without duplicates.
func (v *Vocabulary) MatchBrands(msg string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range v.Brands {
		if s.Alias == "" || !strings.Contains(msg, s.Alias) {
			continue
		}
		if _, ok := seen[s.Canonical]; ok {
			continue
		}
		seen[s.Canonical] = struct{}{}
		out = append(out, s.Canonical)
	}
	return out
}

// MatchCategory returns the canonical category of the first alias occurring in msg.
func (v *Vocabulary) MatchCategory(msg string) (string, bool) {
	for _, s := range v.Categories {
		if s.Alias != "" && strings.Contains(msg, s.Alias) {
			return s.Canonical, true
		}
	}
	return "", false
}

// Aliases returns every alias of both tables, brands first.
func (v *Vocabulary) Aliases() (brands, categories []string) {
	for _, s := range v.Brands {
		brands = append(brands, s.Alias)
	}
	for _, s := range v.Categories {
		categories = append(categories, s.Alias)
	}
	return brands, categories
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
