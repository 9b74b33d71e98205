package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableCartLines only exists in the local cache.
const TableCartLines = "cart_lines"

// CartLine is one product in a customer's cart with the price captured at add time.
type CartLine struct {
	CustomerID    uuid.UUID       `json:"customer_id"`
	StoreID       uuid.UUID       `json:"store_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	AddedAt       time.Time       `json:"added_at"`
}

// CartLineID is the cache key of the (customer, product) line.
func CartLineID(customerID, productID uuid.UUID) string {
	return customerID.String() + ":" + productID.String()
}

func (c CartLine) EntityID() string { return CartLineID(c.CustomerID, c.ProductID) }

func (c CartLine) IndexKey() string { return c.CustomerID.String() }

// LineTotal is price snapshot times quantity.
func (c CartLine) LineTotal() decimal.Decimal {
	return c.PriceSnapshot.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
