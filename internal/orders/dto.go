package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/nearbuy-backend/internal/cart"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
)

// PlaceOrderInput is everything needed to write an order header and its items.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	CustomerName    string
	CustomerPhone   string
	StoreID         uuid.UUID
	DeliveryAddress string
	PaymentMethod   string
	DeliveryFee     decimal.Decimal
	Items           []ItemInput
}

type ItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// Subtotal is the sum of price times quantity over every item.
func (in PlaceOrderInput) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range in.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// CheckoutDetails are the order fields a cart does not carry.
type CheckoutDetails struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	PaymentMethod   string
}

// InputFromCart builds an order from a resolved cart using the snapshotted prices.
func InputFromCart(c *cart.Cart, details CheckoutDetails) PlaceOrderInput {
	in := PlaceOrderInput{
		CustomerID:      c.CustomerID,
		CustomerName:    details.CustomerName,
		CustomerPhone:   details.CustomerPhone,
		StoreID:         c.Store.ID,
		DeliveryAddress: details.DeliveryAddress,
		PaymentMethod:   details.PaymentMethod,
		DeliveryFee:     c.DeliveryFee(),
		Items:           make([]ItemInput, 0, len(c.Lines)),
	}
	for _, line := range c.Lines {
		in.Items = append(in.Items, ItemInput{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}
	return in
}

// OrderDTO is an order header with its items and resolved store name.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	StoreID         uuid.UUID         `json:"store_id"`
	StoreName       string            `json:"store_name"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Status          enums.OrderStatus `json:"status"`
	DeliveryAddress string            `json:"delivery_address"`
	CustomerPhone   string            `json:"customer_phone,omitempty"`
	CustomerName    string            `json:"customer_name,omitempty"`
	PaymentMethod   string            `json:"payment_method"`
	Items           []OrderItemDTO    `json:"items,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// FromModel maps a header and the items assembled on it.
func FromModel(m models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		StoreID:         m.StoreID,
		StoreName:       m.StoreName,
		TotalAmount:     m.TotalAmount,
		DeliveryFee:     m.DeliveryFee,
		Status:          m.Status,
		DeliveryAddress: m.DeliveryAddress,
		CustomerPhone:   m.CustomerPhone,
		CustomerName:    m.CustomerName,
		PaymentMethod:   m.PaymentMethod,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, item := range m.Items {
		name := item.ProductName
		if name == "" {
			name = item.ProductID.String()
		}
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return dto
}

// StripDisplayFields drops the header fields the local cache does not keep.
func StripDisplayFields(o models.Order) models.Order {
	o.DeliveryAddress = ""
	return o
}

// StripItemDisplayFields drops the item fields the local cache does not keep.
func StripItemDisplayFields(i models.OrderItem) models.OrderItem {
	i.ProductName = ""
	return i
}
