package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

const (
	TableStores = "stores"

	// StoreIndexAll groups every cached store under one index key.
	StoreIndexAll = "all"
)

// Store is a merchant that customers discover and order from.
type Store struct {
	ID                       uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                     string                   `gorm:"column:name;not null" json:"name"`
	Address                  string                   `gorm:"column:address;not null" json:"address"`
	Description              string                   `gorm:"column:description" json:"description"`
	Lat                      float64                  `gorm:"column:lat;not null" json:"lat"`
	Lng                      float64                  `gorm:"column:lng;not null" json:"lng"`
	Phone                    string                   `gorm:"column:phone" json:"phone"`
	Email                    string                   `gorm:"column:email" json:"email"`
	Rating                   float64                  `gorm:"column:rating;not null" json:"rating"`
	MinimumOrderValue        decimal.Decimal          `gorm:"column:minimum_order_value;type:numeric(12,2);not null" json:"minimum_order_value"`
	DeliveryFee              decimal.Decimal          `gorm:"column:delivery_fee;type:numeric(12,2);not null" json:"delivery_fee"`
	EstimatedDeliveryMinutes int                      `gorm:"column:estimated_delivery_minutes;not null" json:"estimated_delivery_minutes"`
	IsOpen                   bool                     `gorm:"column:is_open;not null" json:"is_open"`
	SubscriptionStatus       enums.SubscriptionStatus `gorm:"column:subscription_status;not null" json:"subscription_status"`
	CreatedAt                time.Time                `gorm:"column:created_at" json:"created_at"`
	UpdatedAt                time.Time                `gorm:"column:updated_at" json:"updated_at"`
}

func (Store) TableName() string { return TableStores }

func (s Store) EntityID() string { return s.ID.String() }

func (s Store) IndexKey() string { return StoreIndexAll }

// Location returns the store coordinate.
func (s Store) Location() types.GeographyPoint {
	return types.GeographyPoint{Lat: s.Lat, Lng: s.Lng}
}

// Eligible reports whether the store may appear in discovery results.
func (s Store) Eligible() bool {
	return s.SubscriptionStatus == enums.SubscriptionStatusActive && s.IsOpen
}
