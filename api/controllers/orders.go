package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	"github.com/angelmondragon/nearbuy-backend/internal/address"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	"github.com/angelmondragon/nearbuy-backend/internal/orders"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/pagination"
)

type checkoutCart interface {
	Snapshot(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type defaultAddressLoader interface {
	Default(ctx context.Context, ownerID uuid.UUID) (*address.AddressDTO, enums.DataSource, error)
}

type placeOrderRequest struct {
	PaymentMethod   string  `json:"payment_method" validate:"required,payment_method"`
	DeliveryAddress *string `json:"delivery_address,omitempty" validate:"omitempty,max=500"`
	CustomerName    *string `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerPhone   *string `json:"customer_phone,omitempty" validate:"omitempty,max=20,phone"`
}

type placeOrderResponse struct {
	OrderID uuid.UUID `json:"order_id"`
}

// PlaceOrder turns the caller's cart into an order. The cart is cleared
// only once the order and its items are written.
func PlaceOrder(svc orders.Service, carts checkoutCart, addresses defaultAddressLoader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}

		var req placeOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := carts.Snapshot(r.Context(), customer.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if snapshot == nil || len(snapshot.Lines) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
			return
		}
		if !snapshot.MeetsMinimumOrder() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is below the store minimum order value").
				WithDetails(map[string]any{
					"minimum_order_value": snapshot.Store.MinimumOrderValue.StringFixed(2),
					"subtotal":            snapshot.Subtotal().StringFixed(2),
				}))
			return
		}

		deliveryAddress, err := resolveDeliveryAddress(r.Context(), addresses, customer.ID, req.DeliveryAddress)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// validated by the payment_method tag
		method, _ := enums.ParsePaymentMethod(req.PaymentMethod)
		details := orders.CheckoutDetails{
			CustomerName:    firstNonEmpty(req.CustomerName, customer.Name),
			CustomerPhone:   firstNonEmpty(req.CustomerPhone, customer.Phone),
			DeliveryAddress: deliveryAddress,
			PaymentMethod:   method.String(),
		}
		orderID, err := svc.PlaceOrder(r.Context(), orders.InputFromCart(snapshot, details))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := carts.Clear(r.Context(), customer.ID); err != nil && logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"order_id": orderID.String(), "error": err.Error()})
			logg.Warn(ctx, "order.cart_clear_failed")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, placeOrderResponse{OrderID: orderID})
	}
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		limit := pagination.ParseLimit(r.URL.Query().Get("limit"))

		res, err := svc.GetCustomerOrders(r.Context(), customer.ID, customer.Phone, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

// OrderDetail returns one of the caller's orders. Other customers' orders
// read as not found.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, source, err := svc.GetOrderByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		who := orders.Requester{CustomerID: customer.ID, Phone: customer.Phone}
		if !who.Owns(dto.CustomerID, dto.CustomerPhone) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSourced(w, source, dto)
	}
}

func CancelOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		orderID, err := validators.ParseUUIDParam(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CancelOrder(r.Context(), orders.Requester{CustomerID: customer.ID, Phone: customer.Phone}, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func resolveDeliveryAddress(ctx context.Context, addresses defaultAddressLoader, customerID uuid.UUID, explicit *string) (string, error) {
	if explicit != nil {
		if line := strings.TrimSpace(*explicit); line != "" {
			return line, nil
		}
	}
	if addresses == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	def, _, err := addresses.Default(ctx, customerID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
		}
		return "", err
	}
	return formatAddress(def), nil
}

func formatAddress(a *address.AddressDTO) string {
	parts := []string{}
	if a.Flat != nil && strings.TrimSpace(*a.Flat) != "" {
		parts = append(parts, strings.TrimSpace(*a.Flat))
	}
	if a.Building != nil && strings.TrimSpace(*a.Building) != "" {
		parts = append(parts, strings.TrimSpace(*a.Building))
	}
	parts = append(parts, a.Line)
	return strings.Join(parts, ", ")
}

func firstNonEmpty(override *string, fallback string) string {
	if override != nil {
		if v := strings.TrimSpace(*override); v != "" {
			return v
		}
	}
	return fallback
}
