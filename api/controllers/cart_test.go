package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/herbhaven/herbhaven-backend/api/middleware"
	cartsvc "github.com/herbhaven/herbhaven-backend/internal/cart"
	"github.com/herbhaven/herbhaven-backend/pkg/logger"
)

type stubCartService struct {
	cart        *cartsvc.CartDTO
	err         error
	gotQuantity int
	gotProduct  uuid.UUID
	cleared     bool
}

func (s *stubCartService) List(ctx context.Context, userID uuid.UUID) (*cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.gotProduct = productID
	s.gotQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cartsvc.CartDTO, error) {
	s.gotProduct = productID
	s.gotQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) Remove(ctx context.Context, userID, productID uuid.UUID) (*cartsvc.CartDTO, error) {
	s.gotProduct = productID
	return s.cart, s.err
}

func (s *stubCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func TestCartAdd(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	productID := uuid.New()

	makeRequest := func(ctx context.Context, body string, stub *stubCartService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		CartAdd(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing user", func(t *testing.T) {
		rec := makeRequest(context.Background(), `{"product_id":"`+productID.String()+`","quantity":2}`, &stubCartService{})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without user, got %d", rec.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		rec := makeRequest(ctx, `{"quantity":0}`, &stubCartService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing product id, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		stub := &stubCartService{cart: &cartsvc.CartDTO{Items: []cartsvc.ItemDTO{}, SubtotalCents: 0}}
		rec := makeRequest(ctx, `{"product_id":"`+productID.String()+`","quantity":3}`, stub)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.gotProduct != productID {
			t.Fatalf("expected product %s, got %s", productID, stub.gotProduct)
		}
		if stub.gotQuantity != 3 {
			t.Fatalf("expected quantity 3, got %d", stub.gotQuantity)
		}

		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if len(envelope.Data) == 0 {
			t.Fatal("expected data in envelope")
		}
	})
}

func TestCartUpdateItem(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()
	productID := uuid.New()

	makeRequest := func(ctx context.Context, rawID, body string, stub *stubCartService) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+rawID, strings.NewReader(body))
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("productID", rawID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
		req = req.WithContext(ctx)
		rec := httptest.NewRecorder()
		CartUpdateItem(stub, logg).ServeHTTP(rec, req)
		return rec
	}

	t.Run("invalid product id", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		rec := makeRequest(ctx, "not-a-uuid", `{"quantity":2}`, &stubCartService{})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
		}
	})

	t.Run("zero quantity passes through", func(t *testing.T) {
		ctx := middleware.WithUserID(context.Background(), userID.String())
		stub := &stubCartService{cart: &cartsvc.CartDTO{Items: []cartsvc.ItemDTO{}}}
		rec := makeRequest(ctx, productID.String(), `{"quantity":0}`, stub)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for zero quantity, got %d: %s", rec.Code, rec.Body.String())
		}
		if stub.gotQuantity != 0 {
			t.Fatalf("expected quantity 0 forwarded, got %d", stub.gotQuantity)
		}
	})
}

func TestCartClear(t *testing.T) {
	logg := testLogger()
	userID := uuid.New()

	ctx := middleware.WithUserID(context.Background(), userID.String())
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	stub := &stubCartService{}
	CartClear(stub, logg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.cleared {
		t.Fatal("expected clear to reach the service")
	}
}
