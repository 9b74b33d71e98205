package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartDTO is the cart payload with every derived value computed.
type CartDTO struct {
	CustomerID        uuid.UUID       `json:"customer_id"`
	StoreID           uuid.UUID       `json:"store_id"`
	StoreName         string          `json:"store_name"`
	Items             []LineDTO       `json:"items"`
	ItemCount         int             `json:"item_count"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DeliveryFee       decimal.Decimal `json:"delivery_fee"`
	Total             decimal.Decimal `json:"total"`
	MinimumOrderValue decimal.Decimal `json:"minimum_order_value"`
	MeetsMinimumOrder bool            `json:"meets_minimum_order"`
}

type LineDTO struct {
	Line
	LineTotal decimal.Decimal `json:"line_total"`
}

// ToDTO returns nil for a nil cart so an empty cart serializes as null.
func ToDTO(c *Cart) *CartDTO {
	if c == nil {
		return nil
	}
	items := make([]LineDTO, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, LineDTO{Line: line, LineTotal: line.LineTotal()})
	}
	return &CartDTO{
		CustomerID:        c.CustomerID,
		StoreID:           c.Store.ID,
		StoreName:         c.Store.Name,
		Items:             items,
		ItemCount:         c.ItemCount(),
		Subtotal:          c.Subtotal(),
		DeliveryFee:       c.DeliveryFee(),
		Total:             c.Total(),
		MinimumOrderValue: c.Store.MinimumOrderValue,
		MeetsMinimumOrder: c.MeetsMinimumOrder(),
	}
}
