package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

type addCartItemRequest struct {
	StoreID   string `json:"store_id" validate:"required,uuid"`
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

// GetCart returns the resolved cart, or null data when it is empty.
func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		writeCart(r.Context(), w, svc, logg, customer)
	}
}

func ClearCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), customer); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddCartItem adds a product to the cart. A product from another store is
// refused with a conflict and leaves the cart untouched.
func AddCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}

		var req addCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		storeID, _ := uuid.Parse(req.StoreID)
		productID, _ := uuid.Parse(req.ProductID)

		if err := svc.AddItem(r.Context(), customer, storeID, productID, req.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(r.Context(), w, svc, logg, customer)
	}
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func UpdateCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateQuantity(r.Context(), customer, productID, req.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(r.Context(), w, svc, logg, customer)
	}
}

func RemoveCartItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), customer, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(r.Context(), w, svc, logg, customer)
	}
}

func cartCaller(w http.ResponseWriter, r *http.Request, svc cart.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return uuid.Nil, false
	}
	customer, ok := middleware.CustomerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
		return uuid.Nil, false
	}
	return customer.ID, true
}

func writeCart(ctx context.Context, w http.ResponseWriter, svc cart.Service, logg *logger.Logger, customerID uuid.UUID) {
	snapshot, err := svc.Snapshot(ctx, customerID)
	if err != nil {
		responses.WriteError(ctx, logg, w, err)
		return
	}
	responses.WriteSuccess(w, cart.ToDTO(snapshot))
}
