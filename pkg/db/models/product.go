package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const TableProducts = "products"

// Product is a catalog listing owned by a single store.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID       uuid.UUID       `gorm:"column:store_id;type:uuid;not null" json:"store_id"`
	Name          string          `gorm:"column:name;not null" json:"name"`
	Description   string          `gorm:"column:description" json:"description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	StockQuantity int             `gorm:"column:stock_quantity;not null" json:"stock_quantity"`
	Category      string          `gorm:"column:category" json:"category"`
	ImageURL      *string         `gorm:"column:image_url" json:"image_url,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string { return TableProducts }

func (p Product) EntityID() string { return p.ID.String() }

func (p Product) IndexKey() string { return p.StoreID.String() }
