package checkout

import (
	"github.com/google/uuid"
	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/types"
)

// Step identifies where the shopper is in the checkout flow.
type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepReview   Step = "review"
	StepSuccess  Step = "success"
)

// Line is one cart line frozen when the checkout starts. Totals and the
// placed order come from these lines, never from the live cart.
type Line struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"price_cents"`
	Quantity   int       `json:"quantity"`
}

// State is the checkout snapshot carried between steps.
type State struct {
	Step            Step           `json:"step"`
	Lines           []Line         `json:"lines,omitempty"`
	SubtotalCents   int            `json:"subtotal_cents"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	PaymentMethod   string         `json:"payment_method,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
}

// NewState starts a fresh checkout at the shipping step.
func NewState() *State {
	return &State{Step: StepShipping}
}

// Advance moves to the next step once the current step's data is present.
func (s *State) Advance() error {
	switch s.Step {
	case StepShipping:
		if s.ShippingAddress == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping address is required")
		}
		s.Step = StepPayment
		return nil
	case StepPayment:
		if s.PaymentMethod == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment method is required")
		}
		s.Step = StepReview
		return nil
	case StepReview:
		s.Step = StepSuccess
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already complete")
	}
}

// Retreat steps back toward shipping. Success is terminal.
func (s *State) Retreat() error {
	switch s.Step {
	case StepPayment:
		s.Step = StepShipping
		return nil
	case StepReview:
		s.Step = StepPayment
		return nil
	case StepShipping:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first step")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already complete")
	}
}
