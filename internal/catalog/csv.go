package catalog

import (
	"encoding/csv"
	"io"

	"github.com/ashureev/shopchat/internal/domain"
)

// readCSV parses a catalog CSV. Stray quotes inside fields are tolerated and
// blank lines skipped; every record must have as many fields as the header.
func readCSV(r io.Reader) ([]domain.Product, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return productsFromRows(rows)
}
