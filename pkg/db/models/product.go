package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/herbhaven/herbhaven-backend/pkg/enums"
)

// Product represents a catalog listing. The storefront never mutates
// products; they are seeded and managed out of band.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                `gorm:"column:name;not null"`
	Description   string                `gorm:"column:description;not null"`
	PriceCents    int                   `gorm:"column:price_cents;not null"`
	Category      enums.ProductCategory `gorm:"column:category;type:text;not null"`
	THCPercent    *float64              `gorm:"column:thc_percent;type:numeric(5,2)"`
	CBDPercent    *float64              `gorm:"column:cbd_percent;type:numeric(5,2)"`
	Images        pq.StringArray        `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Effects       pq.StringArray        `gorm:"column:effects;type:text[];not null;default:ARRAY[]::text[]"`
	StockQuantity int                   `gorm:"column:stock_quantity;not null;default:0"`
	Featured      bool                  `gorm:"column:featured;not null;default:false"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// InStock is derived, never stored.
func (p Product) InStock() bool {
	return p.StockQuantity > 0
}

// ImageURL returns the primary image, or empty when none exist.
func (p Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
