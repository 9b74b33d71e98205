package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

const TableAddresses = "addresses"

// Address is a delivery location in a customer's address book.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID   uuid.UUID `gorm:"column:owner_id;type:uuid;not null" json:"owner_id"`
	Line      string    `gorm:"column:line;not null" json:"line"`
	Building  *string   `gorm:"column:building" json:"building,omitempty"`
	Flat      *string   `gorm:"column:flat" json:"flat,omitempty"`
	Lat       float64   `gorm:"column:lat;not null" json:"lat"`
	Lng       float64   `gorm:"column:lng;not null" json:"lng"`
	Label     string    `gorm:"column:label" json:"label"`
	IsDefault bool      `gorm:"column:is_default;not null" json:"is_default"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Address) TableName() string { return TableAddresses }

func (a Address) EntityID() string { return a.ID.String() }

func (a Address) IndexKey() string { return a.OwnerID.String() }

func (a Address) Location() types.GeographyPoint {
	return types.GeographyPoint{Lat: a.Lat, Lng: a.Lng}
}
