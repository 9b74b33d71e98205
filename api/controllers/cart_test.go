package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
)

type stubCartService struct {
	added    int
	addErr   error
	snapshot *cart.Cart
}

func (s *stubCartService) AddItem(ctx context.Context, customerID, storeID, productID uuid.UUID, qty int) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added += qty
	return nil
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int) error {
	return nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	return nil
}

func (s *stubCartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	return nil
}

func (s *stubCartService) Snapshot(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	return s.snapshot, nil
}

func TestGetCartEmptyIsNull(t *testing.T) {
	rec := httptest.NewRecorder()
	GetCart(&stubCartService{}, nil).ServeHTTP(rec, customerRequest(http.MethodGet, "/api/v1/cart", "", middleware.Customer{ID: uuid.New()}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body struct {
		Data *cart.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data != nil {
		t.Fatalf("expected null cart got %+v", body.Data)
	}
}

func TestAddCartItemReturnsTotals(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New()}
	svc := &stubCartService{snapshot: testCart(customer.ID, "100")}
	body := `{"store_id":"` + uuid.NewString() + `","product_id":"` + uuid.NewString() + `","quantity":2}`

	rec := httptest.NewRecorder()
	AddCartItem(svc, nil).ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/cart/items", body, customer))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Data cart.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Data.Total.String() != "126" || !payload.Data.MeetsMinimumOrder {
		t.Fatalf("unexpected totals %+v", payload.Data)
	}
	if svc.added != 2 {
		t.Fatalf("expected quantity 2 added got %d", svc.added)
	}
}

func TestAddCartItemOtherStoreConflicts(t *testing.T) {
	svc := &stubCartService{addErr: pkgerrors.New(pkgerrors.CodeConflict, "cart holds items from another store")}
	body := `{"store_id":"` + uuid.NewString() + `","product_id":"` + uuid.NewString() + `","quantity":1}`

	rec := httptest.NewRecorder()
	AddCartItem(svc, nil).ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/cart/items", body, middleware.Customer{ID: uuid.New()}))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestAddCartItemValidatesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	AddCartItem(&stubCartService{}, nil).ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/cart/items", `{"store_id":"x","product_id":"y","quantity":0}`, middleware.Customer{ID: uuid.New()}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCartRequiresCustomer(t *testing.T) {
	rec := httptest.NewRecorder()
	GetCart(&stubCartService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
