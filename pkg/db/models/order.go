package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
)

const (
	TableOrders     = "orders"
	TableOrderItems = "order_items"
)

// Order is the header row of a placed order. StoreName and Items are
// assembled on read and never written with the header.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID      uuid.UUID         `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	StoreID         uuid.UUID         `gorm:"column:store_id;type:uuid;not null" json:"store_id"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null" json:"delivery_fee"`
	Status          enums.OrderStatus `gorm:"column:status;not null" json:"status"`
	DeliveryAddress string            `gorm:"column:delivery_address" json:"delivery_address"`
	CustomerPhone   string            `gorm:"column:customer_phone" json:"customer_phone"`
	CustomerName    string            `gorm:"column:customer_name" json:"customer_name"`
	PaymentMethod   string            `gorm:"column:payment_method" json:"payment_method"`
	CreatedAt       time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at" json:"updated_at"`

	StoreName string      `gorm:"-" json:"-"`
	Items     []OrderItem `gorm:"-" json:"-"`
}

func (Order) TableName() string { return TableOrders }

func (o Order) EntityID() string { return o.ID.String() }

func (o Order) IndexKey() string { return o.CustomerID.String() }

// MarshalJSON leaves out a nil id so the remote assigns one on insert.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	if o.ID != uuid.Nil {
		return json.Marshal(plain(o))
	}
	return json.Marshal(struct {
		plain
		ID *uuid.UUID `json:"id,omitempty"`
	}{plain: plain(o)})
}

// OrderItem is an immutable line of a placed order.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"column:product_name" json:"product_name"`
	Quantity    int             `gorm:"column:quantity;not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
}

func (OrderItem) TableName() string { return TableOrderItems }

func (i OrderItem) EntityID() string { return i.ID.String() }

func (i OrderItem) IndexKey() string { return i.OrderID.String() }
