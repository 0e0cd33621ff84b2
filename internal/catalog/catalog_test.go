package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-chatbot/internal/common/config"
	apperrors "rental-chatbot/internal/common/errors"
	"rental-chatbot/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func sampleRows() []Row {
	return []Row{
		{Brand: "Apple", Category: "Phones & Tablets", Price: 64.9, ProductName: "iPhone XS"},
		{Brand: "Parrot", Category: "Drones", Price: 29.9, ProductName: "Bebop 2"},
		{Brand: "Samsung", Category: "Phones & Tablets", Price: 54.9, ProductName: "Galaxy S10"},
		{Brand: "Apple", Category: "Wearables", Price: 29.9, ProductName: "Watch 4"},
	}
}

// ==========================
// Catalog Tests
// ==========================

func TestNew_ComputesProjections(t *testing.T) {
	cat, err := New(DefaultColumns, sampleRows())
	require.NoError(t, err)

	assert.Equal(t, 4, cat.Len())
	assert.Equal(t, []string{"Apple", "Parrot", "Samsung"}, cat.Brands())
	assert.Equal(t, []string{"Phones & Tablets", "Drones", "Wearables"}, cat.Categories())

	low, high := cat.PriceRange()
	assert.InDelta(t, 29.9, low, 1e-9)
	assert.InDelta(t, 64.9, high, 1e-9)

	assert.True(t, cat.HasBrand("Parrot"))
	assert.False(t, cat.HasBrand("Nokia"))
	assert.True(t, cat.HasCategory("Drones"))
	assert.Equal(t, DefaultColumns, cat.Columns())
}

func TestNew_RowsAreCopies(t *testing.T) {
	cat, err := New(DefaultColumns, sampleRows())
	require.NoError(t, err)

	rows := cat.Rows()
	rows[0].Brand = "Nokia"
	assert.Equal(t, "Apple", cat.Row(0).Brand)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{"empty", nil},
		{"negative price", []Row{{Brand: "A", Category: "C", Price: -1, ProductName: "P"}}},
		{"missing brand", []Row{{Category: "C", Price: 1, ProductName: "P"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultColumns, tt.rows)
			assert.True(t, errors.Is(err, apperrors.ErrCatalogInvalid))
		})
	}
}

// ==========================
// File Source Tests
// ==========================

func TestParse_TabSeparatedWithIndexColumn(t *testing.T) {
	data := "\tProduct Name\tBrand\tCategory\tSubscription Plan\n" +
		"0\tParrot Anafi\tParrot\tDrones\t39,90\n" +
		"1\tApple iPad Pro\tApple\tPhones & Tablets\t59.90 €\n" +
		"\n"

	cat, err := Parse(context.Background(), strings.NewReader(data), '\t')
	require.NoError(t, err)

	assert.Equal(t, []string{"Product Name", "Brand", "Category", "Subscription Plan"}, cat.Columns())
	require.Equal(t, 2, cat.Len())
	assert.Equal(t, Row{Brand: "Parrot", Category: "Drones", Price: 39.9, ProductName: "Parrot Anafi"}, cat.Row(0))
	assert.InDelta(t, 59.9, cat.Row(1).Price, 1e-9)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing column", "Brand,Category,Product Name\nApple,Wearables,Watch\n"},
		{"bad price", "Brand,Category,Subscription Plan,Product Name\nApple,Wearables,cheap,Watch\n"},
		{"no rows", "Brand,Category,Subscription Plan,Product Name\n"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), strings.NewReader(tt.data), ',')
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrCatalogInvalid))
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"19.90", 19.9},
		{"19,90", 19.9},
		{"€19", 19},
		{" 24.5 EUR ", 24.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := ParsePrice("")
	assert.Error(t, err)
}

func TestFileSource_Load(t *testing.T) {
	cat, err := NewFileSource("testdata/catalog.tsv", "\t").Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, cat.Categories(), 6)
	assert.Len(t, cat.Brands(), 12)
	assert.Equal(t, "Microsoft", cat.Brands()[0])

	_, err = NewFileSource("testdata/absent.tsv", "").Load(context.Background())
	assert.Error(t, err)
}

func TestLoad_FromConfig(t *testing.T) {
	cfg := &config.Config{Catalog: config.CatalogConfig{Source: "file", Path: "testdata/catalog.tsv", Delimiter: "\t"}}
	cat, err := Load(context.Background(), cfg, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 19, cat.Len())

	cfg.Catalog.Source = "excel"
	_, err = Load(context.Background(), cfg, logger.NewNoOpLogger())
	assert.Error(t, err)
}

// ==========================
// PostgreSQL Source Tests
// ==========================

func TestPostgresSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"brand", "category", "subscription_plan", "product_name"}).
		AddRow("Apple", "Phones & Tablets", 64.9, "iPhone XS").
		AddRow("Parrot", "Drones", 29.9, "Bebop 2")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT brand, category, subscription_plan, product_name FROM "rentals" ORDER BY id`)).
		WillReturnRows(rows)

	cat, err := NewPostgresSource(db, "rentals").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"Apple", "Parrot"}, cat.Brands())
	assert.Equal(t, DefaultColumns, cat.Columns())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT brand`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = NewPostgresSource(db, "").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch Source Tests
// ==========================

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return es
}

func TestElasticsearchSource_Load(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/_search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"brand":"Apple","category":"Wearables","subscription_plan":29.9,"product_name":"Watch 4"}},
			{"_source":{"brand":"Polar","category":"Wearables","subscription_plan":34.9,"product_name":"Vantage V"}}
		]}}`))
	})

	cat, err := NewElasticsearchSource(es, "").Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, "Vantage V", cat.Row(1).ProductName)
}

func TestElasticsearchSource_IndexMissing(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"index_not_found_exception"}`))
	})

	_, err := NewElasticsearchSource(es, "rentals").Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
