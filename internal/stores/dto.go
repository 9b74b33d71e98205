package stores

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

// StoreDTO exposes store data in API responses.
type StoreDTO struct {
	ID                       uuid.UUID                `json:"id"`
	Name                     string                   `json:"name"`
	Address                  string                   `json:"address"`
	Description              string                   `json:"description,omitempty"`
	Location                 types.GeographyPoint     `json:"location"`
	Phone                    string                   `json:"phone,omitempty"`
	Email                    string                   `json:"email,omitempty"`
	Rating                   float64                  `json:"rating"`
	MinimumOrderValue        decimal.Decimal          `json:"minimum_order_value"`
	DeliveryFee              decimal.Decimal          `json:"delivery_fee"`
	EstimatedDeliveryMinutes int                      `json:"estimated_delivery_minutes"`
	IsOpen                   bool                     `json:"is_open"`
	SubscriptionStatus       enums.SubscriptionStatus `json:"subscription_status"`
	CreatedAt                time.Time                `json:"created_at"`
	UpdatedAt                time.Time                `json:"updated_at"`
}

// NearbyStore is a discovery hit annotated with its distance from the caller.
type NearbyStore struct {
	StoreDTO
	DistanceKm float64 `json:"distance_km"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:                       m.ID,
		Name:                     m.Name,
		Address:                  m.Address,
		Description:              m.Description,
		Location:                 m.Location(),
		Phone:                    m.Phone,
		Email:                    m.Email,
		Rating:                   m.Rating,
		MinimumOrderValue:        m.MinimumOrderValue,
		DeliveryFee:              m.DeliveryFee,
		EstimatedDeliveryMinutes: m.EstimatedDeliveryMinutes,
		IsOpen:                   m.IsOpen,
		SubscriptionStatus:       m.SubscriptionStatus,
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
}
