package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
)

// ReviewInput is one customer's rating of one store.
type ReviewInput struct {
	StoreID      uuid.UUID
	CustomerID   uuid.UUID
	CustomerName string
	Rating       int
	Comment      *string
}

type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	StoreID      uuid.UUID `json:"store_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func FromModel(m models.StoreReview) ReviewDTO {
	return ReviewDTO{
		ID:           m.ID,
		StoreID:      m.StoreID,
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		Rating:       m.Rating,
		Comment:      m.Comment,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
