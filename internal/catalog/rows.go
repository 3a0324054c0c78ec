package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/shopchat/internal/domain"
)

// Columns lists the header names every catalog source must provide.
var Columns = []string{
	"displayTitle",
	"embeddingText",
	"url",
	"imageUrl",
	"productType",
	"discount",
	"price",
	"variants",
	"createDate",
}

// headerIndex maps each required column to its position in the header row.
type headerIndex map[string]int

func newHeaderIndex(header []string) (headerIndex, error) {
	idx := make(headerIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range Columns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// product builds a Product from one data row. Cells past the end of a short
// row read as empty, which spreadsheet sources produce for trailing blanks.
func (h headerIndex) product(row []string) (domain.Product, error) {
	cell := func(col string) string {
		i := h[col]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	discount, err := parseDiscount(cell("discount"))
	if err != nil {
		return domain.Product{}, err
	}

	return domain.Product{
		DisplayTitle:  cell("displayTitle"),
		EmbeddingText: cell("embeddingText"),
		URL:           cell("url"),
		ImageURL:      cell("imageUrl"),
		ProductType:   cell("productType"),
		Discount:      discount,
		Price:         cell("price"),
		Variants:      cell("variants"),
		CreateDate:    cell("createDate"),
	}, nil
}

// parseDiscount reads the numeric discount column. A blank cell is zero.
func parseDiscount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid discount %q", raw)
	}
	return v, nil
}

// productsFromRows converts a header row plus data rows into products.
// Zero-length rows are skipped; a row of empty cells is an empty product.
func productsFromRows(rows [][]string) ([]domain.Product, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}
	idx, err := newHeaderIndex(rows[0])
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		p, err := idx.product(row)
		if err != nil {
			// +2: one for the header, one for 1-based line numbers.
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		products = append(products, p)
	}
	return products, nil
}
