// internal/preference/model.go
package preference

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"rental-chatbot/internal/catalog"
	apperrors "rental-chatbot/internal/common/errors"
)

const (
	// InitialBrandWeight is the weight a brand gets the first time it is mentioned.
	InitialBrandWeight = 0.5
	// UnsetBrandScore is the score used for rows whose brand has no weight yet.
	UnsetBrandScore = 0.5
	// exactPriceEpsilon replaces a zero price distance when scoring.
	exactPriceEpsilon = 1e-9
)

// Weight is a brand weight that is either unset or a value in [0, inf).
type Weight struct {
	value float64
	set   bool
}

// Value returns the weight and whether it has been expressed.
func (w Weight) Value() (float64, bool) { return w.value, w.set }

func (w Weight) String() string {
	if !w.set {
		return "unset"
	}
	return strconv.FormatFloat(w.value, 'f', -1, 64)
}

// Model holds the slots of one conversation and answers which products are still possible.
// The brand key set is fixed at construction to the catalog brands.
type Model struct {
	catalog *catalog.Catalog

	category    string
	hasCategory bool

	brands  []string
	weights map[string]Weight

	price    float64
	hasPrice bool
}

// NewModel creates an empty model with one unset weight per catalog brand.
func NewModel(cat *catalog.Catalog) *Model {
	brands := cat.Brands()
	weights := make(map[string]Weight, len(brands))
	for _, b := range brands {
		weights[b] = Weight{}
	}
	return &Model{catalog: cat, brands: brands, weights: weights}
}

// Category returns the chosen category.
func (m *Model) Category() (string, bool) { return m.category, m.hasCategory }

// SetCategory records the category preference.
func (m *Model) SetCategory(category string) error {
	if !m.catalog.HasCategory(category) {
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownCategory, category)
	}
	m.category = category
	m.hasCategory = true
	return nil
}

// Price returns the target price.
func (m *Model) Price() (float64, bool) { return m.price, m.hasPrice }

func (m *Model) SetPrice(price float64) {
	m.price = price
	m.hasPrice = true
}

// PriceRange returns the global catalog price bounds.
func (m *Model) PriceRange() (float64, float64) { return m.catalog.PriceRange() }

// Brands returns every catalog brand in catalog order.
func (m *Model) Brands() []string { return append([]string(nil), m.brands...) }

// Categories returns every catalog category in catalog order.
func (m *Model) Categories() []string { return m.catalog.Categories() }

// BrandWeight returns the weight of a catalog brand.
func (m *Model) BrandWeight(brand string) (Weight, error) {
	w, ok := m.weights[brand]
	if !ok {
		return Weight{}, apperrors.NewUnknownBrandError(brand)
	}
	return w, nil
}

// AdjustBrandPreference multiplies the brand weight by factor, starting from
// InitialBrandWeight when the brand is still unset. Afterwards every brand that is still unset
// becomes 0: once one brand is preferred, brands never mentioned are excluded.
func (m *Model) AdjustBrandPreference(brand string, factor float64) error {
	w, ok := m.weights[brand]
	if !ok {
		return apperrors.NewUnknownBrandError(brand)
	}
	if factor < 0 || math.IsNaN(factor) {
		return fmt.Errorf("brand factor must be non-negative, got %v", factor)
	}

	if !w.set {
		w = Weight{value: InitialBrandWeight, set: true}
	}
	w.value *= factor
	m.weights[brand] = w

	for b, other := range m.weights {
		if !other.set {
			m.weights[b] = Weight{value: 0, set: true}
		}
	}
	return nil
}

// HasPositiveBrand reports whether any brand carries a weight above zero.
func (m *Model) HasPositiveBrand() bool {
	for _, w := range m.weights {
		if w.set && w.value > 0 {
			return true
		}
	}
	return false
}

func (m *Model) excluded(brand string) bool {
	w := m.weights[brand]
	return w.set && w.value == 0
}

// FilteredRows returns the rows matching the category (if set) whose brand is not excluded.
func (m *Model) FilteredRows() []catalog.Row {
	var out []catalog.Row
	for _, r := range m.catalog.Rows() {
		if m.hasCategory && r.Category != m.category {
			continue
		}
		if m.excluded(r.Brand) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PossibleBrands returns the distinct brands of the filtered rows in catalog order.
func (m *Model) PossibleBrands() []string {
	return distinct(m.FilteredRows(), func(r catalog.Row) string { return r.Brand })
}

// PossibleCategories returns the distinct categories of the filtered rows in catalog order.
func (m *Model) PossibleCategories() []string {
	return distinct(m.FilteredRows(), func(r catalog.Row) string { return r.Category })
}

// PossiblePriceRange returns the price bounds of the filtered rows.
func (m *Model) PossiblePriceRange() (float64, float64, error) {
	rows := m.FilteredRows()
	if len(rows) == 0 {
		return 0, 0, apperrors.NewEmptyResultError(m.describe())
	}
	low, high := rows[0].Price, rows[0].Price
	for _, r := range rows[1:] {
		low = math.Min(low, r.Price)
		high = math.Max(high, r.Price)
	}
	return low, high, nil
}

// Recommendation is a filtered row with its score.
type Recommendation struct {
	catalog.Row
	Score float64
}

// ComputeRecommendations scores the filtered rows by brand weight, divided by the distance to
// the target price when one is set, and orders them best first. Equal scores keep catalog order.
func (m *Model) ComputeRecommendations() ([]Recommendation, error) {
	rows := m.FilteredRows()
	if len(rows) == 0 {
		return nil, apperrors.NewEmptyResultError(m.describe())
	}

	recs := make([]Recommendation, len(rows))
	for i, r := range rows {
		score := UnsetBrandScore
		if w := m.weights[r.Brand]; w.set {
			score = w.value
		}
		if m.hasPrice {
			diff := math.Abs(r.Price - m.price)
			if diff == 0 {
				diff = exactPriceEpsilon
			}
			score /= diff
		}
		recs[i] = Recommendation{Row: r, Score: score}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	return recs, nil
}

func (m *Model) describe() string {
	parts := []string{}
	if m.hasCategory {
		parts = append(parts, "category="+m.category)
	}
	for _, b := range m.brands {
		if w := m.weights[b]; w.set && w.value > 0 {
			parts = append(parts, "brand="+b)
		}
	}
	return strings.Join(parts, " ")
}

// String dumps the slots for the shell's :get command.
func (m *Model) String() string {
	category := "unset"
	if m.hasCategory {
		category = m.category
	}
	price := "unset"
	if m.hasPrice {
		price = strconv.FormatFloat(m.price, 'f', -1, 64)
	}

	weights := make([]string, 0, len(m.brands))
	for _, b := range m.brands {
		weights = append(weights, b+"="+m.weights[b].String())
	}

	return fmt.Sprintf("Category: %s\nBrand: %s\nPrice: %s", category, strings.Join(weights, ", "), price)
}

func distinct(rows []catalog.Row, key func(catalog.Row) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
