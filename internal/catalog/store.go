// Package catalog holds the in-memory product catalog used by the
// searchProducts tool.
package catalog

import (
	"strings"

	"github.com/ashureev/shopchat/internal/domain"
)

// Store is a read-only, ordered product list. It is safe for concurrent use
// because nothing mutates it after construction.
type Store struct {
	products []domain.Product
	keys     []searchKey
}

// searchKey holds the lower-cased searchable fields of one product.
type searchKey struct {
	title     string
	embedding string
	kind      string
}

// New builds a store over products, preserving their order.
func New(products []domain.Product) *Store {
	s := &Store{
		products: make([]domain.Product, len(products)),
		keys:     make([]searchKey, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		s.keys[i] = searchKey{
			title:     strings.ToLower(p.DisplayTitle),
			embedding: strings.ToLower(p.EmbeddingText),
			kind:      strings.ToLower(p.ProductType),
		}
	}
	return s
}

// Search returns, in load order, every product whose title, embedding text or
// product type contains query, ignoring case. An empty query matches all
// products. This is a linear scan.
func (s *Store) Search(query string) []domain.Product {
	query = strings.ToLower(query)

	matches := make([]domain.Product, 0)
	for i, k := range s.keys {
		if strings.Contains(k.title, query) ||
			strings.Contains(k.embedding, query) ||
			strings.Contains(k.kind, query) {
			matches = append(matches, s.products[i])
		}
	}
	return matches
}

// Len returns the number of loaded products.
func (s *Store) Len() int {
	return len(s.products)
}
