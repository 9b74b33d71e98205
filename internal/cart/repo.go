package cart

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
)

type linePolicy interface {
	Cached(ctx context.Context, index string, match func(models.CartLine) bool) ([]models.CartLine, error)
	WriteThrough(ctx context.Context, rows ...models.CartLine) error
	Evict(ctx context.Context, ids ...string) error
	EvictIndex(ctx context.Context, index string) error
}

// CartRepository persists cart lines in the local cache.
type CartRepository interface {
	Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error)
	Save(ctx context.Context, line models.CartLine) error
	Remove(ctx context.Context, customerID, productID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

// Repository stores cart lines through a cache-only sync policy.
type Repository struct {
	policy linePolicy
}

// NewRepository binds the repository to the cart_lines policy.
func NewRepository(policy linePolicy) (*Repository, error) {
	if policy == nil {
		return nil, fmt.Errorf("cart line policy required")
	}
	return &Repository{policy: policy}, nil
}

// Lines returns the customer's lines in the order they were added.
func (r *Repository) Lines(ctx context.Context, customerID uuid.UUID) ([]models.CartLine, error) {
	lines, err := r.policy.Cached(ctx, customerID.String(), nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].AddedAt.Before(lines[j].AddedAt)
	})
	return lines, nil
}

func (r *Repository) Save(ctx context.Context, line models.CartLine) error {
	return r.policy.WriteThrough(ctx, line)
}

func (r *Repository) Remove(ctx context.Context, customerID, productID uuid.UUID) error {
	return r.policy.Evict(ctx, models.CartLineID(customerID, productID))
}

func (r *Repository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.policy.EvictIndex(ctx, customerID.String())
}
