package checkout

import (
	"testing"

	pkgerrors "github.com/herbhaven/herbhaven-backend/pkg/errors"
	"github.com/herbhaven/herbhaven-backend/pkg/types"
)

func TestStateAdvanceRequiresStepData(t *testing.T) {
	state := NewState()

	err := state.Advance()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict without shipping address, got %v", err)
	}

	state.ShippingAddress = &types.Address{Street: "1 Main St"}
	if err := state.Advance(); err != nil {
		t.Fatalf("advance to payment: %v", err)
	}
	if state.Step != StepPayment {
		t.Fatalf("expected payment step, got %s", state.Step)
	}

	err = state.Advance()
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict without payment method, got %v", err)
	}

	state.PaymentMethod = "card"
	if err := state.Advance(); err != nil {
		t.Fatalf("advance to review: %v", err)
	}
	if state.Step != StepReview {
		t.Fatalf("expected review step, got %s", state.Step)
	}

	if err := state.Advance(); err != nil {
		t.Fatalf("advance to success: %v", err)
	}
	if state.Step != StepSuccess {
		t.Fatalf("expected success step, got %s", state.Step)
	}

	if err := state.Advance(); err == nil {
		t.Fatal("expected error advancing past success")
	}
}

func TestStateRetreatWalksBack(t *testing.T) {
	state := &State{Step: StepReview}

	if err := state.Retreat(); err != nil {
		t.Fatalf("retreat to payment: %v", err)
	}
	if state.Step != StepPayment {
		t.Fatalf("expected payment step, got %s", state.Step)
	}

	if err := state.Retreat(); err != nil {
		t.Fatalf("retreat to shipping: %v", err)
	}
	if state.Step != StepShipping {
		t.Fatalf("expected shipping step, got %s", state.Step)
	}

	if err := state.Retreat(); err == nil {
		t.Fatal("expected error retreating past shipping")
	}

	terminal := &State{Step: StepSuccess}
	if err := terminal.Retreat(); err == nil {
		t.Fatal("expected error retreating from success")
	}
}
