package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
)

// MaxLineQuantity caps the units of one product a cart line may hold.
const MaxLineQuantity = 99

type storeLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*stores.StoreDTO, enums.DataSource, error)
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.ProductDTO, enums.DataSource, error)
}

// Service manages single-store carts kept in the local cache.
type Service interface {
	AddItem(ctx context.Context, customerID, storeID, productID uuid.UUID, qty int) error
	UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int) error
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
	Snapshot(ctx context.Context, customerID uuid.UUID) (*Cart, error)
}

type service struct {
	repo     CartRepository
	locker   Locker
	stores   storeLoader
	products productLoader
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, locker Locker, storeSvc storeLoader, productSvc productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if locker == nil {
		return nil, fmt.Errorf("cart locker required")
	}
	if storeSvc == nil {
		return nil, fmt.Errorf("store loader required")
	}
	if productSvc == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{
		repo:     repo,
		locker:   locker,
		stores:   storeSvc,
		products: productSvc,
		now:      time.Now,
	}, nil
}

func (s *service) AddItem(ctx context.Context, customerID, storeID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if qty > MaxLineQuantity {
		return quantityTooLarge(qty)
	}

	return s.locked(ctx, customerID, func() error {
		p, _, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p.StoreID != storeID {
			return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to store")
		}

		lines, err := s.repo.Lines(ctx, customerID)
		if err != nil {
			return err
		}
		var existing *models.CartLine
		for i := range lines {
			if lines[i].StoreID != storeID {
				return pkgerrors.New(pkgerrors.CodeConflict, "cart pinned to another store").
					WithDetails(map[string]any{"store_id": lines[i].StoreID})
			}
			if lines[i].ProductID == productID {
				existing = &lines[i]
			}
		}

		if existing != nil {
			if existing.Quantity+qty > MaxLineQuantity {
				return quantityTooLarge(existing.Quantity + qty)
			}
			existing.Quantity += qty
			return s.repo.Save(ctx, *existing)
		}
		return s.repo.Save(ctx, models.CartLine{
			CustomerID:    customerID,
			StoreID:       storeID,
			ProductID:     productID,
			Quantity:      qty,
			PriceSnapshot: p.Price,
			AddedAt:       s.now().UTC(),
		})
	})
}

func (s *service) UpdateQuantity(ctx context.Context, customerID, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1; remove the item instead")
	}
	if qty > MaxLineQuantity {
		return quantityTooLarge(qty)
	}

	return s.locked(ctx, customerID, func() error {
		line, err := s.line(ctx, customerID, productID)
		if err != nil {
			return err
		}
		line.Quantity = qty
		return s.repo.Save(ctx, *line)
	})
}

func quantityTooLarge(qty int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity %d exceeds the limit of %d", qty, MaxLineQuantity)).
		WithDetails(map[string]any{"max_quantity": MaxLineQuantity})
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	return s.locked(ctx, customerID, func() error {
		return s.repo.Remove(ctx, customerID, productID)
	})
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	return s.locked(ctx, customerID, func() error {
		return s.repo.Clear(ctx, customerID)
	})
}

// Snapshot resolves the cart against the current store and catalog. It
// returns nil when the cart is empty or anything it refers to is gone.
func (s *service) Snapshot(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	lines, err := s.repo.Lines(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	store, _, err := s.stores.GetByID(ctx, lines[0].StoreID)
	if err != nil {
		return nil, unresolved(err)
	}

	cart := &Cart{CustomerID: customerID, Store: *store, Lines: make([]Line, 0, len(lines))}
	for _, l := range lines {
		p, _, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, unresolved(err)
		}
		cart.Lines = append(cart.Lines, newLine(l, *p))
	}
	return cart, nil
}

func (s *service) line(ctx context.Context, customerID, productID uuid.UUID) (*models.CartLine, error) {
	lines, err := s.repo.Lines(ctx, customerID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].ProductID == productID {
			return &lines[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
}

func (s *service) locked(ctx context.Context, customerID uuid.UUID, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, customerID.String())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart")
	}
	defer unlock()
	return fn()
}

// unresolved swallows NOT_FOUND so a dangling cart reads as no cart.
func unresolved(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil
	}
	return err
}
