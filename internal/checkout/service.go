package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/herbhaven/herbhaven-backend/internal/cart"
	"github.com/herbhaven/herbhaven-backend/internal/orders"
	pkgcheckout "github.com/herbhaven/herbhaven-backend/pkg/checkout"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/types"
	redislib "github.com/redis/go-redis/v9"
)

const stateTTL = 30 * time.Minute

// SummaryDTO is the state plus the amounts derived from its line snapshot.
// Before the workflow starts the lines preview the live cart; from the
// shipping submission on they are frozen.
type SummaryDTO struct {
	State  *State             `json:"state"`
	Totals pkgcheckout.Totals `json:"totals"`
}

// Service drives the checkout workflow for the authenticated user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*SummaryDTO, error)
	SubmitShipping(ctx context.Context, userID uuid.UUID, address types.Address) (*SummaryDTO, error)
	SubmitPayment(ctx context.Context, userID uuid.UUID, method string, billing *types.Address, notes *string) (*SummaryDTO, error)
	Back(ctx context.Context, userID uuid.UUID) (*SummaryDTO, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDetailDTO, error)
}

type stateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutStateKey(userID string) string
}

type cartService interface {
	List(ctx context.Context, userID uuid.UUID) (*cart.CartDTO, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input orders.PlaceOrderInput) (*orders.OrderDetailDTO, error)
}

type service struct {
	store  stateStore
	cart   cartService
	orders orderPlacer
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Store  stateStore
	Cart   cartService
	Orders orderPlacer
}

// NewService constructs a checkout service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order placer is required")
	}
	return &service{
		store:  params.Store,
		cart:   params.Cart,
		orders: params.Orders,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*SummaryDTO, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, userID, state)
}

// SubmitShipping starts the workflow: the cart is frozen into the state here
// and later steps price and place that snapshot. Stepping back to shipping
// and resubmitting refreshes the snapshot.
func (s *service) SubmitShipping(ctx context.Context, userID uuid.UUID, address types.Address) (*SummaryDTO, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Step != StepShipping {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not at the shipping step").
			WithDetails(map[string]any{"step": state.Step})
	}

	userCart, err := s.cart.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}
	lines, err := linesFromCart(userCart)
	if err != nil {
		return nil, err
	}
	state.Lines = lines
	state.SubtotalCents = userCart.SubtotalCents
	state.ShippingAddress = &address
	if err := state.Advance(); err != nil {
		return nil, err
	}
	if err := s.saveState(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.summarize(ctx, userID, state)
}

func (s *service) SubmitPayment(ctx context.Context, userID uuid.UUID, method string, billing *types.Address, notes *string) (*SummaryDTO, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Step != StepPayment {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "not at the payment step").
			WithDetails(map[string]any{"step": state.Step})
	}

	trimmed := strings.TrimSpace(method)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}
	state.PaymentMethod = trimmed
	state.BillingAddress = billing
	state.Notes = notes
	if err := state.Advance(); err != nil {
		return nil, err
	}
	if err := s.saveState(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.summarize(ctx, userID, state)
}

func (s *service) Back(ctx context.Context, userID uuid.UUID) (*SummaryDTO, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := state.Retreat(); err != nil {
		return nil, err
	}
	if err := s.saveState(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.summarize(ctx, userID, state)
}

// PlaceOrder submits the snapshot from the review step. On failure the
// snapshot survives so the shopper can retry from review.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDetailDTO, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.Step != StepReview {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be placed from review").
			WithDetails(map[string]any{"step": state.Step})
	}
	if state.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "shipping address is required")
	}
	if len(state.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has no lines")
	}

	lines := make([]orders.LineInput, 0, len(state.Lines))
	for _, line := range state.Lines {
		lines = append(lines, orders.LineInput{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceCents: line.PriceCents,
		})
	}

	detail, err := s.orders.PlaceOrder(ctx, userID, orders.PlaceOrderInput{
		Lines:           lines,
		ShippingAddress: *state.ShippingAddress,
		BillingAddress:  state.BillingAddress,
		PaymentMethod:   state.PaymentMethod,
		Notes:           state.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Del(ctx, s.store.CheckoutStateKey(userID.String())); err != nil {
		// stale snapshots expire on their own
		return detail, nil
	}
	return detail, nil
}

func (s *service) loadState(ctx context.Context, userID uuid.UUID) (*State, error) {
	raw, err := s.store.Get(ctx, s.store.CheckoutStateKey(userID.String()))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return NewState(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout state")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return NewState(), nil
	}
	return &state, nil
}

func (s *service) saveState(ctx context.Context, userID uuid.UUID, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout state")
	}
	if err := s.store.Set(ctx, s.store.CheckoutStateKey(userID.String()), payload, stateTTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout state")
	}
	return nil
}

func (s *service) summarize(ctx context.Context, userID uuid.UUID, state *State) (*SummaryDTO, error) {
	// before the snapshot exists, preview the live cart without persisting it
	if state.Step == StepShipping && len(state.Lines) == 0 {
		userCart, err := s.cart.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		lines, err := linesFromCart(userCart)
		if err != nil {
			return nil, err
		}
		preview := *state
		preview.Lines = lines
		preview.SubtotalCents = userCart.SubtotalCents
		return &SummaryDTO{
			State:  &preview,
			Totals: pkgcheckout.ComputeTotals(preview.SubtotalCents),
		}, nil
	}

	return &SummaryDTO{
		State:  state,
		Totals: pkgcheckout.ComputeTotals(state.SubtotalCents),
	}, nil
}

func linesFromCart(userCart *cart.CartDTO) ([]Line, error) {
	lines := make([]Line, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		if item.Product == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart references missing product")
		}
		lines = append(lines, Line{
			ProductID:  item.ProductID,
			Name:       item.Product.Name,
			PriceCents: item.Product.PriceCents,
			Quantity:   item.Quantity,
		})
	}
	return lines, nil
}
