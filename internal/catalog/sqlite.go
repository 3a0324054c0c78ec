package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ashureev/shopchat/internal/domain"
	"github.com/ashureev/shopchat/internal/shared"
	_ "modernc.org/sqlite"
)

// loadSQLite reads the products table in rowid order. The database is opened
// read-only; a busy or locked database is retried with exponential backoff.
func loadSQLite(ctx context.Context, path string, o *loadOptions) ([]domain.Product, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	for i := 0; ; i++ {
		rows, err := queryProducts(ctx, db)
		if err == nil {
			return productsFromRows(rows)
		}
		if !shared.IsSQLiteConflictError(err) || i >= o.retries-1 {
			return nil, err
		}

		delay := o.baseDelay * time.Duration(1<<i)
		o.logger.Debug("Catalog database locked, retrying", "path", path, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// queryProducts returns the table as text rows headed by Columns, so the
// shared row parser applies the same rules as the file sources.
func queryProducts(ctx context.Context, db *sql.DB) ([][]string, error) {
	quoted := make([]string, len(Columns))
	for i, c := range Columns {
		quoted[i] = `"` + c + `"`
	}
	query := "SELECT " + strings.Join(quoted, ", ") + " FROM products ORDER BY rowid"

	rs, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer func() { _ = rs.Close() }()

	out := [][]string{Columns}
	for rs.Next() {
		cells := make([]sql.NullString, len(Columns))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
