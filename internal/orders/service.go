package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/logger"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	orderNumberPrefix = "HH"
	recentOrdersLimit = 5
)

// Service exposes order operations scoped to the authenticated user.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDetailDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Recent(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetDetail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDetailDTO, error)
	Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error)
	UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

type repository interface {
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error)
	FindByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) error
}

type cartClearer interface {
	DeleteAll(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo repository
	cart cartClearer
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build an orders service.
type ServiceParams struct {
	Repo   repository
	Cart   cartClearer
	Logger *logger.Logger
}

// NewService constructs an orders service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	return &service{
		repo: params.Repo,
		cart: params.Cart,
		logg: params.Logger,
	}, nil
}

// PlaceOrder persists the given lines as an order at the prices the caller
// captured. The header and the lines are written in two steps; a failed line
// insert deletes the header so no empty order is left behind.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*OrderDetailDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no lines")
	}

	subtotal := 0
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		subtotal += line.PriceCents * line.Quantity
		items = append(items, models.OrderItem{
			ID:                   uuid.New(),
			ProductID:            line.ProductID,
			Quantity:             line.Quantity,
			PriceAtPurchaseCents: line.PriceCents,
		})
	}

	number, err := newOrderNumber(time.Now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		OrderNumber:     number,
		Status:          enums.OrderStatusPending,
		TotalCents:      subtotal,
		ShippingAddress: &input.ShippingAddress,
		BillingAddress:  input.BillingAddress,
		Notes:           input.Notes,
	}
	if method := strings.TrimSpace(input.PaymentMethod); method != "" {
		order.PaymentMethod = &method
	}

	persisted, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	for i := range items {
		items[i].OrderID = persisted.ID
	}
	if err := s.repo.CreateOrderItems(ctx, items); err != nil {
		if deleteErr := s.repo.DeleteOrder(ctx, persisted.ID); deleteErr != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "order.compensating_delete.failed", deleteErr)
			}
			err = multierr.Append(err, deleteErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
	}

	if err := s.cart.DeleteAll(ctx, userID); err != nil && s.logg != nil {
		// the order stands; an uncleared cart is recoverable
		s.logg.Error(ctx, "order.cart_clear.failed", err)
	}

	return &OrderDetailDTO{
		OrderDTO: fromOrderModel(persisted),
		Items:    fromItemModels(items),
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	return s.list(ctx, userID, 0)
}

func (s *service) Recent(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	return s.list(ctx, userID, recentOrdersLimit)
}

func (s *service) list(ctx context.Context, userID uuid.UUID, limit int) ([]OrderDTO, error) {
	orders, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, fromOrderModel(&orders[i]))
	}
	return out, nil
}

// GetDetail loads the header and the lines. Either read failing fails the
// whole detail; a header without its lines is never returned.
func (s *service) GetDetail(ctx context.Context, userID, orderID uuid.UUID) (*OrderDetailDTO, error) {
	order, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return s.withItems(ctx, order)
}

func (s *service) GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDetailDTO, error) {
	trimmed := strings.TrimSpace(orderNumber)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, userID, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return s.withItems(ctx, order)
}

func (s *service) withItems(ctx context.Context, order *models.Order) (*OrderDetailDTO, error) {
	items, err := s.repo.FindItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order items")
	}
	return &OrderDetailDTO{
		OrderDTO: fromOrderModel(order),
		Items:    fromItemModels(items),
	}, nil
}

// Stats folds the user's history. Cancelled orders count for neither the
// order count nor the spend.
func (s *service) Stats(ctx context.Context, userID uuid.UUID) (*StatsDTO, error) {
	orders, err := s.repo.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	stats := &StatsDTO{}
	for _, order := range orders {
		switch order.Status {
		case enums.OrderStatusCancelled:
			continue
		case enums.OrderStatusPending:
			stats.PendingOrders++
		case enums.OrderStatusDelivered:
			stats.DeliveredOrders++
		}
		stats.TotalOrders++
		stats.TotalSpentCents += order.TotalCents
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderCents = stats.TotalSpentCents / stats.TotalOrders
	}
	return stats, nil
}

// UpdateStatus sets the order to any valid status directly. Cancel is the
// only transition with a guard; this is the unguarded path behind it.
func (s *service) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": status})
	}

	order, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}

	if err := s.repo.UpdateStatus(ctx, userID, orderID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	order.Status = status
	dto := fromOrderModel(order)
	return &dto, nil
}

func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if !order.Status.IsCancellable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").
			WithDetails(map[string]any{"status": order.Status})
	}

	if err := s.repo.UpdateStatus(ctx, userID, orderID, enums.OrderStatusCancelled); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	order.Status = enums.OrderStatusCancelled
	dto := fromOrderModel(order)
	return &dto, nil
}

func newOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s",
		orderNumberPrefix,
		now.Format("20060102"),
		strings.ToUpper(hex.EncodeToString(suffix)),
	), nil
}
