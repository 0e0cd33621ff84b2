// internal/catalog/file.go
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "rental-chatbot/internal/common/errors"
)

// FileSource reads a delimited product table with a header row. An unnamed leading column is
// treated as a row index and ignored.
type FileSource struct {
	path  string
	comma rune
}

func NewFileSource(path, delimiter string) *FileSource {
	comma := '\t'
	if r, _ := utf8.DecodeRuneInString(delimiter); r != utf8.RuneError {
		comma = r
	}
	return &FileSource{path: path, comma: comma}
}

func (s *FileSource) Load(ctx context.Context) (*Catalog, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", s.path, err)
	}
	defer f.Close()

	return Parse(ctx, f, s.comma)
}

// Parse decodes a delimited table from r.
func Parse(ctx context.Context, r io.Reader, comma rune) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", apperrors.ErrCatalogInvalid, err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := idx[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("%w: missing column %q", apperrors.ErrCatalogInvalid, name)
		}
		return i, nil
	}

	var cols [4]int
	for i, name := range DefaultColumns {
		if cols[i], err = lookup(name); err != nil {
			return nil, err
		}
	}

	columns := make([]string, 0, len(header))
	for i, name := range header {
		if i == 0 && strings.TrimSpace(name) == "" {
			continue
		}
		columns = append(columns, strings.TrimSpace(name))
	}

	var rows []Row
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", apperrors.ErrCatalogInvalid, line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		field := func(col int) string {
			if col >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[col])
		}

		price, err := ParsePrice(field(cols[2]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", apperrors.ErrCatalogInvalid, line, err)
		}
		rows = append(rows, Row{
			Brand:       field(cols[0]),
			Category:    field(cols[1]),
			Price:       price,
			ProductName: field(cols[3]),
		})
	}

	return New(columns, rows)
}

// ParsePrice accepts "19.90", "19,90", "19.90 €" and "€19".
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(strings.NewReplacer("€", "", "EUR", "", " ", "").Replace(s))
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return price, nil
}
