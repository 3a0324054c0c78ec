package catalog

import (
	"testing"

	"github.com/ashureev/shopchat/internal/domain"
)

func testProducts() []domain.Product {
	return []domain.Product{
		{DisplayTitle: "Blue Cotton Shirt", EmbeddingText: "soft summer shirt", ProductType: "Shirts", Price: "$20"},
		{DisplayTitle: "Leather Boots", EmbeddingText: "brown winter boots", ProductType: "Footwear", Price: "$120"},
		{DisplayTitle: "Linen Trousers", EmbeddingText: "pairs well with a SHIRT", ProductType: "Pants", Price: "$45"},
		{DisplayTitle: "Wool Scarf", EmbeddingText: "warm", ProductType: "Accessories", Price: "$15"},
	}
}

func titles(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.DisplayTitle
	}
	return out
}

func TestStore_Search(t *testing.T) {
	t.Parallel()
	s := New(testProducts())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title match keeps load order", "shirt", []string{"Blue Cotton Shirt", "Linen Trousers"}},
		{"case insensitive", "BOOTS", []string{"Leather Boots"}},
		{"product type", "accessories", []string{"Wool Scarf"}},
		{"embedding text", "winter", []string{"Leather Boots"}},
		{"no match", "umbrella", []string{}},
		{"empty query matches all", "", []string{"Blue Cotton Shirt", "Leather Boots", "Linen Trousers", "Wool Scarf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := titles(s.Search(tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search(%q)[%d] = %q, want %q", tt.query, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_SearchNoMatchIsEmptyNotNil(t *testing.T) {
	t.Parallel()
	got := New(testProducts()).Search("nothing here")
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestStore_CopiesInput(t *testing.T) {
	t.Parallel()
	in := testProducts()
	s := New(in)
	in[0].DisplayTitle = "changed"

	if got := s.Search("blue"); len(got) != 1 || got[0].DisplayTitle != "Blue Cotton Shirt" {
		t.Errorf("store was affected by caller mutation: %v", titles(got))
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}
