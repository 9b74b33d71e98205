package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	"github.com/angelmondragon/nearbuy-backend/internal/payments"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

type paymentIntentRequest struct {
	OrderID string          `json:"order_id" validate:"required,uuid"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method" validate:"required,payment_method"`
}

func CreatePaymentIntent(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}
		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}

		var req paymentIntentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !req.Amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive"))
			return
		}
		method, err := enums.ParsePaymentMethod(req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		orderID, _ := uuid.Parse(req.OrderID)

		intent, err := svc.CreateIntent(r.Context(), payments.IntentInput{
			OrderID:    orderID,
			CustomerID: customer.ID,
			Amount:     req.Amount,
			Method:     method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, intent)
	}
}
