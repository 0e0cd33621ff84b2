// internal/catalog/catalog.go
package catalog

import (
	"fmt"

	apperrors "rental-chatbot/internal/common/errors"
)

// Column names of the rental product table.
const (
	ColumnBrand       = "Brand"
	ColumnCategory    = "Category"
	ColumnPrice       = "Subscription Plan"
	ColumnProductName = "Product Name"
)

// DefaultColumns is the column set exposed by sources that do not carry their own header.
var DefaultColumns = []string{ColumnBrand, ColumnCategory, ColumnPrice, ColumnProductName}

// Row is one rentable product. Price is the monthly subscription plan.
type Row struct {
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Price       float64 `json:"subscription_plan"`
	ProductName string  `json:"product_name"`
}

// Catalog is an immutable, ordered product table shared read-only by every session.
type Catalog struct {
	columns    []string
	rows       []Row
	brands     []string
	categories []string
	minPrice   float64
	maxPrice   float64
}

// New validates rows and precomputes the brand and category sets in first-appearance order.
func New(columns []string, rows []Row) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: catalog has no rows", apperrors.ErrCatalogInvalid)
	}

	c := &Catalog{
		columns:  append([]string(nil), columns...),
		rows:     append([]Row(nil), rows...),
		minPrice: rows[0].Price,
		maxPrice: rows[0].Price,
	}

	seenBrands := make(map[string]struct{})
	seenCategories := make(map[string]struct{})
	for i, r := range c.rows {
		if r.Brand == "" || r.Category == "" || r.ProductName == "" {
			return nil, fmt.Errorf("%w: row %d has an empty field", apperrors.ErrCatalogInvalid, i)
		}
		if r.Price < 0 {
			return nil, fmt.Errorf("%w: row %d has negative price %v", apperrors.ErrCatalogInvalid, i, r.Price)
		}
		if _, ok := seenBrands[r.Brand]; !ok {
			seenBrands[r.Brand] = struct{}{}
			c.brands = append(c.brands, r.Brand)
		}
		if _, ok := seenCategories[r.Category]; !ok {
			seenCategories[r.Category] = struct{}{}
			c.categories = append(c.categories, r.Category)
		}
		if r.Price < c.minPrice {
			c.minPrice = r.Price
		}
		if r.Price > c.maxPrice {
			c.maxPrice = r.Price
		}
	}
	return c, nil
}

// Rows returns a copy of the rows in catalog order.
func (c *Catalog) Rows() []Row {
	return append([]Row(nil), c.rows...)
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return len(c.rows) }

// Row returns the i-th row.
func (c *Catalog) Row(i int) Row { return c.rows[i] }

func (c *Catalog) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Brands returns the distinct brands in first-appearance order.
func (c *Catalog) Brands() []string {
	return append([]string(nil), c.brands...)
}

// Categories returns the distinct categories in first-appearance order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// PriceRange returns the global minimum and maximum price.
func (c *Catalog) PriceRange() (float64, float64) {
	return c.minPrice, c.maxPrice
}

func (c *Catalog) HasBrand(brand string) bool {
	for _, b := range c.brands {
		if b == brand {
			return true
		}
	}
	return false
}

func (c *Catalog) HasCategory(category string) bool {
	for _, cat := range c.categories {
		if cat == category {
			return true
		}
	}
	return false
}
