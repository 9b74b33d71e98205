package models

import (
	"time"

	"github.com/google/uuid"
)

const TableStoreReviews = "store_reviews"

// StoreReview is one customer's rating of a store.
type StoreReview struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID      uuid.UUID `gorm:"column:store_id;type:uuid;not null" json:"store_id"`
	CustomerID   uuid.UUID `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	CustomerName string    `gorm:"column:customer_name" json:"customer_name"`
	Rating       int       `gorm:"column:rating;not null" json:"rating"`
	Comment      *string   `gorm:"column:comment" json:"comment,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (StoreReview) TableName() string { return TableStoreReviews }

func (r StoreReview) EntityID() string { return r.ID.String() }

func (r StoreReview) IndexKey() string { return r.StoreID.String() }
