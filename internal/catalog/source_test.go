package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\ufeffdisplayTitle,embeddingText,url,imageUrl,productType,discount,price,variants,createDate\n" +
	`Blue Shirt,"a ""soft"" shirt",https://shop.test/p/1,https://shop.test/i/1.jpg,Shirts,10,$20.00,S|M,2024-01-02` + "\n" +
	"\n" +
	"Red Boots,winter boots,https://shop.test/p/2,https://shop.test/i/2.jpg,Footwear,,$120.00,42,2024-02-03\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CSV(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "products.csv", sampleCSV)

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	all := s.Search("")
	assert.Equal(t, "Blue Shirt", all[0].DisplayTitle)
	assert.Equal(t, `a "soft" shirt`, all[0].EmbeddingText)
	assert.InDelta(t, 10.0, all[0].Discount, 1e-9)
	assert.Equal(t, "$20.00", all[0].Price)
	assert.Equal(t, "Red Boots", all[1].DisplayTitle)
	assert.Zero(t, all[1].Discount)
}

func TestLoad_CSVErrors(t *testing.T) {
	t.Parallel()
	header := strings.Join(Columns, ",") + "\n"

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing column", "displayTitle,url\nA,B\n", "missing columns"},
		{"bad discount", header + "A,B,C,D,E,ten,G,H,I\n", `invalid discount "ten"`},
		{"ragged row", header + "A,B,C\n", "wrong number of fields"},
		{"NaN discount", header + "A,B,C,D,E,NaN,G,H,I\n", `invalid discount "NaN"`},
		{"infinite discount", header + "A,B,C,D,E,-Inf,G,H,I\n", `invalid discount "-Inf"`},
		{"empty file", "", "no header row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, "products.csv", tt.content)
			_, err := Load(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_CSVCommaOnlyRowIsEmptyProduct(t *testing.T) {
	t.Parallel()
	content := strings.Join(Columns, ",") + "\n" +
		"A,,,,,1,,,\n" +
		",,,,,,,,\n"
	path := writeFile(t, "products.csv", content)

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, "A", s.Search("")[0].DisplayTitle)
	assert.Empty(t, s.Search("")[1].DisplayTitle)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_UnsupportedSource(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "products.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog source")
}

func TestLoad_XLSX(t *testing.T) {
	t.Parallel()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{
		"Green Hat", "wide brim", "https://shop.test/p/3", "https://shop.test/i/3.jpg", "Hats", 5.5, "$30", "One size", "2024-03-04",
	}))

	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, f.SaveAs(path))

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	got := s.Search("hat")[0]
	assert.Equal(t, "Green Hat", got.DisplayTitle)
	assert.InDelta(t, 5.5, got.Discount, 1e-9)
	assert.Equal(t, "Hats", got.ProductType)
}

func TestLoad_SQLite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE products (
		displayTitle TEXT, embeddingText TEXT, url TEXT, imageUrl TEXT, productType TEXT,
		discount REAL, price TEXT, variants TEXT, createDate TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO products VALUES
		('Wool Scarf', 'warm', 'u1', 'i1', 'Accessories', 12.5, '$15', '', '2024-01-01'),
		('Silk Tie', 'formal', 'u2', 'i2', 'Accessories', NULL, '$25', '', '2024-01-02')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	for _, source := range []string{path, "sqlite://" + path} {
		s, err := Load(context.Background(), source)
		require.NoError(t, err, source)

		all := s.Search("accessories")
		require.Len(t, all, 2)
		assert.Equal(t, "Wool Scarf", all[0].DisplayTitle)
		assert.InDelta(t, 12.5, all[0].Discount, 1e-9)
		assert.Equal(t, "Silk Tie", all[1].DisplayTitle)
		assert.Zero(t, all[1].Discount)
	}
}

type fakeS3 struct {
	objects map[string][]byte
	calls   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	body, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func TestLoad_S3(t *testing.T) {
	t.Parallel()
	client := &fakeS3{objects: map[string][]byte{"shop/catalog/products.csv": []byte(sampleCSV)}}

	s, err := Load(context.Background(), "s3://shop/catalog/products.csv", WithS3Client(client))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, client.calls)

	_, err = Load(context.Background(), "s3://shop/missing.csv", WithS3Client(client))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NoSuchKey")
}

func TestParseS3URI(t *testing.T) {
	t.Parallel()
	bucket, key, err := parseS3URI("s3://shop/a/b.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "shop", bucket)
	assert.Equal(t, "a/b.xlsx", key)

	_, _, err = parseS3URI("s3://shop")
	assert.Error(t, err)
}
