package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CatalogSizer reports how many products are loaded.
type CatalogSizer interface {
	Len() int
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status   string `json:"status"`
	Products int    `json:"products"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// HealthHandler reports service readiness.
type HealthHandler struct {
	catalog  CatalogSizer
	provider string
	model    string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(catalog CatalogSizer, provider, model string) *HealthHandler {
	return &HealthHandler{catalog: catalog, provider: provider, model: model}
}

// RegisterHealth registers GET /health.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.HandleHealth)
}

// HandleHealth handles GET /health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Products: h.catalog.Len(),
		Provider: h.provider,
		Model:    h.model,
	})
}
