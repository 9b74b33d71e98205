// Package payments reserves the payment surface. No provider is wired yet,
// so every intent is refused.
package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
)

// IntentInput asks for a payment against a placed order.
type IntentInput struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.Decimal
	Method     enums.PaymentMethod
}

type IntentDTO struct {
	ID           string          `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	Amount       decimal.Decimal `json:"amount"`
	ClientSecret string          `json:"client_secret"`
}

type Service interface {
	CreateIntent(ctx context.Context, in IntentInput) (*IntentDTO, error)
}

type service struct{}

func NewService() Service {
	return service{}
}

func (service) CreateIntent(_ context.Context, in IntentInput) (*IntentDTO, error) {
	if in.Method != "" && !in.Method.Online() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery orders need no payment intent")
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotImplemented, "payments are not available").
		WithDetails(map[string]any{"order_id": in.OrderID.String()})
}
