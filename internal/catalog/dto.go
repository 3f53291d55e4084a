package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
)

// ProductDTO is the public shape of a catalog product.
type ProductDTO struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	PriceCents    int                   `json:"price_cents"`
	Category      enums.ProductCategory `json:"category"`
	THCPercent    *float64              `json:"thc_percent,omitempty"`
	CBDPercent    *float64              `json:"cbd_percent,omitempty"`
	Images        []string              `json:"images"`
	Effects       []string              `json:"effects"`
	StockQuantity int                   `json:"stock_quantity"`
	InStock       bool                  `json:"in_stock"`
	Featured      bool                  `json:"featured"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		PriceCents:    p.PriceCents,
		Category:      p.Category,
		THCPercent:    p.THCPercent,
		CBDPercent:    p.CBDPercent,
		Images:        append([]string(nil), p.Images...),
		Effects:       append([]string(nil), p.Effects...),
		StockQuantity: p.StockQuantity,
		InStock:       p.InStock(),
		Featured:      p.Featured,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromModels(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *FromModel(&products[i]))
	}
	return out
}

// ListFilters describe the inputs supported by the product list.
type ListFilters struct {
	Category *enums.ProductCategory
	Featured *bool
	Query    string
	Limit    int
	Offset   int
}
