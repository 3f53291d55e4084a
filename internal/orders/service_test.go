package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/pkg/db/models"
	"github.com/herbhaven/herbhaven-backend/pkg/enums"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/types"
	"gorm.io/gorm"
)

type stubOrdersRepo struct {
	orders       map[uuid.UUID]*models.Order
	items        map[uuid.UUID][]models.OrderItem
	itemsErr     error
	deleteCalled []uuid.UUID
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders: map[uuid.UUID]*models.Order{},
		items:  map[uuid.UUID][]models.OrderItem{},
	}
}

func (r *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	r.orders[order.ID] = order
	return order, nil
}

func (r *stubOrdersRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if r.itemsErr != nil {
		return r.itemsErr
	}
	if len(items) > 0 {
		r.items[items[0].OrderID] = items
	}
	return nil
}

func (r *stubOrdersRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	r.deleteCalled = append(r.deleteCalled, orderID)
	delete(r.orders, orderID)
	return nil
}

func (r *stubOrdersRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubOrdersRepo) FindByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := r.orders[orderID]; ok && o.UserID == userID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdersRepo) FindByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.UserID == userID && o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubOrdersRepo) FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return r.items[orderID], nil
}

func (r *stubOrdersRepo) UpdateStatus(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) error {
	if o, ok := r.orders[orderID]; ok && o.UserID == userID {
		o.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

type stubCart struct {
	cleared  bool
	clearErr error
}

func (c *stubCart) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared = true
	return nil
}

func orderLine(priceCents, quantity int) LineInput {
	return LineInput{
		ProductID:  uuid.New(),
		Quantity:   quantity,
		PriceCents: priceCents,
	}
}

func buildOrdersService(t *testing.T, repo *stubOrdersRepo, cart *stubCart) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, Cart: cart})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func placeInput(lines ...LineInput) PlaceOrderInput {
	return PlaceOrderInput{
		Lines: lines,
		ShippingAddress: types.Address{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Street:    "1 Main St",
			City:      "Denver",
			State:     "CO",
			ZipCode:   "80014",
			Country:   "US",
		},
		PaymentMethod: "card",
	}
}

func TestServicePlaceOrderPersistsLinesAndClearsCart(t *testing.T) {
	repo := newStubOrdersRepo()
	cart := &stubCart{}
	svc := buildOrdersService(t, repo, cart)
	userID := uuid.New()

	detail, err := svc.PlaceOrder(context.Background(), userID, placeInput(orderLine(25_00, 2), orderLine(40_00, 1)))
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// the persisted total is the pre-tax subtotal
	if detail.TotalCents != 90_00 {
		t.Fatalf("expected total 9000, got %d", detail.TotalCents)
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(detail.Items))
	}
	if detail.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", detail.Status)
	}
	if !strings.HasPrefix(detail.OrderNumber, "HH-") {
		t.Fatalf("unexpected order number %s", detail.OrderNumber)
	}
	if !cart.cleared {
		t.Fatal("expected cart to be cleared")
	}
}

func TestServicePlaceOrderRejectsNoLines(t *testing.T) {
	svc := buildOrdersService(t, newStubOrdersRepo(), &stubCart{})

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), placeInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestServicePlaceOrderDeletesHeaderWhenLinesFail(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.itemsErr = errors.New("insert failed")
	cart := &stubCart{}
	svc := buildOrdersService(t, repo, cart)

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), placeInput(orderLine(25_00, 2)))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(repo.deleteCalled) != 1 {
		t.Fatalf("expected one compensating delete, got %d", len(repo.deleteCalled))
	}
	if len(repo.orders) != 0 {
		t.Fatalf("expected no surviving order header, got %d", len(repo.orders))
	}
	if cart.cleared {
		t.Fatal("cart must not be cleared on failure")
	}
}

func TestServicePlaceOrderKeepsOrderWhenCartClearFails(t *testing.T) {
	repo := newStubOrdersRepo()
	cart := &stubCart{clearErr: errors.New("redis down")}
	svc := buildOrdersService(t, repo, cart)

	detail, err := svc.PlaceOrder(context.Background(), uuid.New(), placeInput(orderLine(25_00, 2)))
	if err != nil {
		t.Fatalf("place order should survive a failed cart clear: %v", err)
	}
	if _, ok := repo.orders[detail.ID]; !ok {
		t.Fatal("expected order to be persisted")
	}
}

func TestServiceStatsExcludesCancelledOrders(t *testing.T) {
	repo := newStubOrdersRepo()
	userID := uuid.New()
	seed := []struct {
		status enums.OrderStatus
		total  int
	}{
		{enums.OrderStatusDelivered, 30_00},
		{enums.OrderStatusCancelled, 20_00},
		{enums.OrderStatusPending, 50_00},
	}
	for _, s := range seed {
		id := uuid.New()
		repo.orders[id] = &models.Order{
			ID:         id,
			UserID:     userID,
			Status:     s.status,
			TotalCents: s.total,
			CreatedAt:  time.Now(),
		}
	}
	svc := buildOrdersService(t, repo, &stubCart{})

	stats, err := svc.Stats(context.Background(), userID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", stats.TotalOrders)
	}
	if stats.TotalSpentCents != 80_00 {
		t.Fatalf("expected spend 8000, got %d", stats.TotalSpentCents)
	}
	if stats.AverageOrderCents != 40_00 {
		t.Fatalf("expected average 4000, got %d", stats.AverageOrderCents)
	}
	if stats.PendingOrders != 1 || stats.DeliveredOrders != 1 {
		t.Fatalf("unexpected status buckets %+v", stats)
	}
}

func TestServiceStatsEmptyHistory(t *testing.T) {
	svc := buildOrdersService(t, newStubOrdersRepo(), &stubCart{})

	stats, err := svc.Stats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalOrders != 0 || stats.TotalSpentCents != 0 || stats.AverageOrderCents != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
}

func TestServiceUpdateStatusSetsAnyValidStatus(t *testing.T) {
	repo := newStubOrdersRepo()
	userID := uuid.New()
	orderID := uuid.New()
	repo.orders[orderID] = &models.Order{ID: orderID, UserID: userID, Status: enums.OrderStatusPending}

	svc := buildOrdersService(t, repo, &stubCart{})

	updated, err := svc.UpdateStatus(context.Background(), userID, orderID, enums.OrderStatusShipped)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}

	// unlike cancel, a direct update has no transition guard
	if _, err := svc.UpdateStatus(context.Background(), userID, orderID, enums.OrderStatusPending); err != nil {
		t.Fatalf("update back to pending: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), userID, orderID, enums.OrderStatus("misplaced"))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), uuid.New(), orderID, enums.OrderStatusShipped)
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
}

func TestServiceCancelOnlyWhileCancellable(t *testing.T) {
	repo := newStubOrdersRepo()
	userID := uuid.New()

	pendingID := uuid.New()
	repo.orders[pendingID] = &models.Order{ID: pendingID, UserID: userID, Status: enums.OrderStatusPending}
	shippedID := uuid.New()
	repo.orders[shippedID] = &models.Order{ID: shippedID, UserID: userID, Status: enums.OrderStatusShipped}

	svc := buildOrdersService(t, repo, &stubCart{})

	cancelled, err := svc.Cancel(context.Background(), userID, pendingID)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	_, err = svc.Cancel(context.Background(), userID, shippedID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestServiceGetDetailScopedToOwner(t *testing.T) {
	repo := newStubOrdersRepo()
	owner := uuid.New()
	orderID := uuid.New()
	repo.orders[orderID] = &models.Order{ID: orderID, UserID: owner, Status: enums.OrderStatusPending}

	svc := buildOrdersService(t, repo, &stubCart{})

	if _, err := svc.GetDetail(context.Background(), owner, orderID); err != nil {
		t.Fatalf("owner read: %v", err)
	}

	_, err := svc.GetDetail(context.Background(), uuid.New(), orderID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
}
