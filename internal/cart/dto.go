package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/internal/catalog"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
)

// ItemDTO is the public shape of a cart line.
type ItemDTO struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	Quantity       int                 `json:"quantity"`
	Product        *catalog.ProductDTO `json:"product,omitempty"`
	LineTotalCents int                 `json:"line_total_cents"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CartDTO wraps the cart lines plus the derived aggregates.
type CartDTO struct {
	Items         []ItemDTO `json:"items"`
	SubtotalCents int       `json:"subtotal_cents"`
	ItemCount     int       `json:"item_count"`
}

func itemFromModel(item *models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if item.Product != nil {
		dto.Product = catalog.FromModel(item.Product)
		dto.LineTotalCents = item.Product.PriceCents * item.Quantity
	}
	return dto
}

// Subtotal folds the priced lines into a subtotal in cents.
func Subtotal(items []ItemDTO) int {
	total := 0
	for _, item := range items {
		total += item.LineTotalCents
	}
	return total
}

// ItemCount folds the line quantities into a unit count.
func ItemCount(items []ItemDTO) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
