// Package domain contains core domain types for the shop chat service.
package domain

// Product is one catalog record. Products are created once when the catalog
// is loaded and never mutated afterwards.
type Product struct {
	DisplayTitle  string  `json:"displayTitle"`
	EmbeddingText string  `json:"embeddingText"`
	URL           string  `json:"url"`
	ImageURL      string  `json:"imageUrl"`
	ProductType   string  `json:"productType"`
	Discount      float64 `json:"discount"`
	Price         string  `json:"price"`
	Variants      string  `json:"variants"`
	CreateDate    string  `json:"createDate"`
}

// ProductSummary is the projection of a Product handed to the model as a
// searchProducts tool result.
type ProductSummary struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	ImageURL    string  `json:"imageUrl"`
	Price       string  `json:"price"`
	Discount    float64 `json:"discount"`
	ProductType string  `json:"productType"`
}

// Summary projects the product to the fields exposed to the model.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		Title:       p.DisplayTitle,
		URL:         p.URL,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		Discount:    p.Discount,
		ProductType: p.ProductType,
	}
}
