package catalog

import (
	"fmt"
	"io"

	"github.com/ashureev/shopchat/internal/domain"
	"github.com/xuri/excelize/v2"
)

// readXLSX parses the first worksheet of a workbook.
func readXLSX(r io.Reader) ([]domain.Product, error) {
	xlsx, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = xlsx.Close() }()

	sheets := xlsx.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := xlsx.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return productsFromRows(rows)
}
