package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/shopchat/internal/domain"
)

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	s3        S3Getter
	awsRegion string
	logger    *slog.Logger
	retries   int
	baseDelay time.Duration
}

// WithS3Client sets the client used for s3:// sources. Without it Load builds
// one from the default AWS configuration chain.
func WithS3Client(c S3Getter) Option {
	return func(o *loadOptions) { o.s3 = c }
}

// WithAWSRegion sets the region used when Load builds its own S3 client.
func WithAWSRegion(region string) Option {
	return func(o *loadOptions) { o.awsRegion = region }
}

// WithLogger sets the logger used while loading.
func WithLogger(l *slog.Logger) Option {
	return func(o *loadOptions) { o.logger = l }
}

// Load reads every product from source and returns a ready store. The source
// kind is picked from its scheme or file extension:
//
//	products.csv              CSV with a header row
//	products.xlsx             first worksheet, header row
//	products.db, sqlite://p   SQLite table "products"
//	s3://bucket/key.csv       CSV or XLSX object in S3
//
// Any read or parse failure is returned; callers treat it as fatal.
func Load(ctx context.Context, source string, opts ...Option) (*Store, error) {
	o := loadOptions{
		logger:    slog.Default(),
		retries:   3,
		baseDelay: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	products, err := load(ctx, source, &o)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", source, err)
	}

	o.logger.Info("Catalog loaded", "source", source, "products", len(products))
	return New(products), nil
}

func load(ctx context.Context, source string, o *loadOptions) ([]domain.Product, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		return loadS3(ctx, source, o)
	case strings.HasPrefix(source, "sqlite://"):
		return loadSQLite(ctx, strings.TrimPrefix(source, "sqlite://"), o)
	}

	switch kindOf(source) {
	case kindCSV:
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return readCSV(f)
	case kindXLSX:
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return readXLSX(f)
	case kindSQLite:
		return loadSQLite(ctx, source, o)
	default:
		return nil, fmt.Errorf("unsupported catalog source %q", source)
	}
}

type sourceKind int

const (
	kindUnknown sourceKind = iota
	kindCSV
	kindXLSX
	kindSQLite
)

func kindOf(path string) sourceKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return kindCSV
	case ".xlsx":
		return kindXLSX
	case ".db", ".sqlite", ".sqlite3":
		return kindSQLite
	default:
		return kindUnknown
	}
}
