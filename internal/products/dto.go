package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID            uuid.UUID       `json:"id"`
	StoreID       uuid.UUID       `json:"store_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Category      string          `json:"category,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FromModel maps a catalog row into its DTO.
func FromModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:            m.ID,
		StoreID:       m.StoreID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		Category:      m.Category,
		ImageURL:      m.ImageURL,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
