package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
	"github.com/herbhaven/herbhaven-backend/pkg/types"
)

// ItemDTO is the public shape of an order line.
type ItemDTO struct {
	ID                   uuid.UUID `json:"id"`
	ProductID            uuid.UUID `json:"product_id"`
	Quantity             int       `json:"quantity"`
	PriceAtPurchaseCents int       `json:"price_at_purchase_cents"`
	LineTotalCents       int       `json:"line_total_cents"`
}

// OrderDTO is the public shape of an order summary.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Status          enums.OrderStatus `json:"status"`
	TotalCents      int               `json:"total_cents"`
	ShippingAddress *types.Address    `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address    `json:"billing_address,omitempty"`
	PaymentMethod   *string           `json:"payment_method,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderDetailDTO joins the order with its lines.
type OrderDetailDTO struct {
	OrderDTO
	Items []ItemDTO `json:"items"`
}

// StatsDTO aggregates the user's non-cancelled order history.
type StatsDTO struct {
	TotalOrders       int `json:"total_orders"`
	TotalSpentCents   int `json:"total_spent_cents"`
	AverageOrderCents int `json:"average_order_cents"`
	PendingOrders     int `json:"pending_orders"`
	DeliveredOrders   int `json:"delivered_orders"`
}

// LineInput is one order line captured at checkout time. The price is the
// one the shopper reviewed, not the product's current price.
type LineInput struct {
	ProductID  uuid.UUID
	Quantity   int
	PriceCents int
}

// PlaceOrderInput carries everything needed to persist a checkout.
type PlaceOrderInput struct {
	Lines           []LineInput
	ShippingAddress types.Address
	BillingAddress  *types.Address
	PaymentMethod   string
	Notes           *string
}

func fromOrderModel(o *models.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          o.Status,
		TotalCents:      o.TotalCents,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func fromItemModels(items []models.OrderItem) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, ItemDTO{
			ID:                   item.ID,
			ProductID:            item.ProductID,
			Quantity:             item.Quantity,
			PriceAtPurchaseCents: item.PriceAtPurchaseCents,
			LineTotalCents:       item.PriceAtPurchaseCents * item.Quantity,
		})
	}
	return out
}
