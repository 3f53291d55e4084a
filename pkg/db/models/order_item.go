package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots one purchased line. PriceAtPurchaseCents is frozen
// at placement and must not follow later product price changes.
type OrderItem struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID            uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Quantity             int       `gorm:"column:quantity;not null"`
	PriceAtPurchaseCents int       `gorm:"column:price_at_purchase_cents;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
}
