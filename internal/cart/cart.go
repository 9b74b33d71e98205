package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
)

// Line is a cart line joined with its catalog product. UnitPrice is the
// snapshot taken when the product was first added.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

// LineTotal is UnitPrice times Quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the resolved, single-store cart of one customer.
type Cart struct {
	CustomerID uuid.UUID
	Store      stores.StoreDTO
	Lines      []Line
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.Lines {
		sum = sum.Add(line.LineTotal())
	}
	return sum
}

func (c *Cart) DeliveryFee() decimal.Decimal {
	return c.Store.DeliveryFee
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.DeliveryFee())
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) MeetsMinimumOrder() bool {
	return c.Subtotal().GreaterThanOrEqual(c.Store.MinimumOrderValue)
}

func newLine(l models.CartLine, p product.ProductDTO) Line {
	return Line{
		ProductID: l.ProductID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Quantity:  l.Quantity,
		UnitPrice: l.PriceSnapshot,
		AddedAt:   l.AddedAt,
	}
}
