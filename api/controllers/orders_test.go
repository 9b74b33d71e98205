package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/internal/address"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	"github.com/angelmondragon/nearbuy-backend/internal/orders"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type stubOrderService struct {
	placed   *orders.PlaceOrderInput
	placeErr error
	order    *orders.OrderDTO
	cancelBy *orders.Requester
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, in orders.PlaceOrderInput) (uuid.UUID, error) {
	if s.placeErr != nil {
		return uuid.Nil, s.placeErr
	}
	s.placed = &in
	return uuid.New(), nil
}

func (s *stubOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, enums.DataSource, error) {
	if s.order == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, enums.DataSourceRemote, nil
}

func (s *stubOrderService) GetCustomerOrders(ctx context.Context, customerID uuid.UUID, phone string, limit int) (syncpolicy.Result[orders.OrderDTO], error) {
	return syncpolicy.Result[orders.OrderDTO]{Source: enums.DataSourceRemote}, nil
}

func (s *stubOrderService) CancelOrder(ctx context.Context, who orders.Requester, id uuid.UUID) (*orders.OrderDTO, error) {
	s.cancelBy = &who
	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
}

type stubCheckoutCart struct {
	snapshot *cart.Cart
	cleared  bool
}

func (s *stubCheckoutCart) Snapshot(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	return s.snapshot, nil
}

func (s *stubCheckoutCart) Clear(ctx context.Context, customerID uuid.UUID) error {
	s.cleared = true
	return nil
}

type stubDefaultAddress struct {
	dto *address.AddressDTO
}

func (s stubDefaultAddress) Default(ctx context.Context, ownerID uuid.UUID) (*address.AddressDTO, enums.DataSource, error) {
	if s.dto == nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "no default address")
	}
	return s.dto, enums.DataSourceRemote, nil
}

func testCart(customerID uuid.UUID, minimum string) *cart.Cart {
	return &cart.Cart{
		CustomerID: customerID,
		Store: stores.StoreDTO{
			ID:                uuid.New(),
			Name:              "Fresh Mart",
			DeliveryFee:       decimal.RequireFromString("20"),
			MinimumOrderValue: decimal.RequireFromString(minimum),
		},
		Lines: []cart.Line{
			{ProductID: uuid.New(), Name: "Milk", Quantity: 2, UnitPrice: decimal.RequireFromString("30.50")},
			{ProductID: uuid.New(), Name: "Bread", Quantity: 1, UnitPrice: decimal.RequireFromString("45")},
		},
	}
}

func customerRequest(method, target, body string, customer middleware.Customer) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithCustomer(req.Context(), customer))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestPlaceOrderFromCartUsesDefaultAddress(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New(), Name: "Asha", Phone: "9876543210"}
	flat := "4B"
	svc := &stubOrderService{}
	carts := &stubCheckoutCart{snapshot: testCart(customer.ID, "100")}
	addresses := stubDefaultAddress{dto: &address.AddressDTO{Line: "12 Hill Road, Bandra", Flat: &flat}}

	rec := httptest.NewRecorder()
	PlaceOrder(svc, carts, addresses, nil).ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"cod"}`, customer))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.placed == nil {
		t.Fatal("expected order placed")
	}
	if svc.placed.DeliveryAddress != "4B, 12 Hill Road, Bandra" {
		t.Fatalf("unexpected address %q", svc.placed.DeliveryAddress)
	}
	if svc.placed.CustomerName != "Asha" || svc.placed.CustomerPhone != "9876543210" {
		t.Fatalf("expected caller profile on order, got %+v", svc.placed)
	}
	if !svc.placed.Subtotal().Equal(decimal.RequireFromString("106")) {
		t.Fatalf("unexpected subtotal %s", svc.placed.Subtotal())
	}
	if !carts.cleared {
		t.Fatal("expected cart cleared after order")
	}
}

func TestPlaceOrderRejectsEmptyCart(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New()}
	rec := httptest.NewRecorder()
	PlaceOrder(&stubOrderService{}, &stubCheckoutCart{}, stubDefaultAddress{}, nil).
		ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"upi","delivery_address":"x"}`, customer))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPlaceOrderRejectsBelowMinimum(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New()}
	svc := &stubOrderService{}
	carts := &stubCheckoutCart{snapshot: testCart(customer.ID, "200")}

	rec := httptest.NewRecorder()
	PlaceOrder(svc, carts, stubDefaultAddress{}, nil).
		ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"cod","delivery_address":"12 Hill Road"}`, customer))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.placed != nil || carts.cleared {
		t.Fatal("order must not be placed below the minimum")
	}
}

func TestPlaceOrderPartialWriteKeepsCart(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New()}
	svc := &stubOrderService{placeErr: pkgerrors.New(pkgerrors.CodePartialWrite, "order items not saved").
		WithDetails(map[string]any{"order_id": uuid.NewString()})}
	carts := &stubCheckoutCart{snapshot: testCart(customer.ID, "0")}

	rec := httptest.NewRecorder()
	PlaceOrder(svc, carts, stubDefaultAddress{}, nil).
		ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"card","delivery_address":"12 Hill Road"}`, customer))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
	if errorCode(t, rec) != string(pkgerrors.CodePartialWrite) {
		t.Fatalf("unexpected code %s", errorCode(t, rec))
	}
	if carts.cleared {
		t.Fatal("cart must survive a failed order")
	}
}

func TestPlaceOrderRequiresAddress(t *testing.T) {
	customer := middleware.Customer{ID: uuid.New()}
	carts := &stubCheckoutCart{snapshot: testCart(customer.ID, "0")}

	rec := httptest.NewRecorder()
	PlaceOrder(&stubOrderService{}, carts, stubDefaultAddress{}, nil).
		ServeHTTP(rec, customerRequest(http.MethodPost, "/api/v1/orders", `{"payment_method":"cod"}`, customer))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestOrderDetailHidesOtherCustomersOrders(t *testing.T) {
	owner := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &orders.OrderDTO{ID: orderID, CustomerID: owner}}

	req := customerRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", middleware.Customer{ID: uuid.New()})
	req = withURLParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	req = customerRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", middleware.Customer{ID: owner})
	req = withURLParam(req, "orderId", orderID.String())
	rec = httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestOrderDetailShowsOrdersMatchedByPhone(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: &orders.OrderDTO{ID: orderID, CustomerID: uuid.New(), CustomerPhone: "9876543210"}}

	req := customerRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", middleware.Customer{ID: uuid.New(), Phone: "+91-9876543210"})
	req = withURLParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	req = customerRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", middleware.Customer{ID: uuid.New(), Phone: "9123456780"})
	req = withURLParam(req, "orderId", orderID.String())
	rec = httptest.NewRecorder()
	OrderDetail(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a different phone, got %d", rec.Code)
	}
}

func TestCancelOrderStateConflict(t *testing.T) {
	orderID := uuid.New()
	customer := middleware.Customer{ID: uuid.New(), Phone: "9876543210"}
	req := customerRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/cancel", "", customer)
	req = withURLParam(req, "orderId", orderID.String())
	rec := httptest.NewRecorder()
	svc := &stubOrderService{}
	CancelOrder(svc, nil).ServeHTTP(rec, req)

	if svc.cancelBy == nil || svc.cancelBy.CustomerID != customer.ID || svc.cancelBy.Phone != customer.Phone {
		t.Fatalf("cancel should carry the caller's id and phone, got %+v", svc.cancelBy)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if errorCode(t, rec) != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", errorCode(t, rec))
	}
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}
