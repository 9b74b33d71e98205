package product

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type productPolicy interface {
	Fetch(ctx context.Context, q syncpolicy.Query[models.Product]) (syncpolicy.Result[models.Product], error)
	Get(ctx context.Context, id string, f remote.Filter) (models.Product, enums.DataSource, error)
}

// Service exposes the read side of the catalog.
type Service interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) (syncpolicy.Result[ProductDTO], error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, enums.DataSource, error)
}

type service struct {
	policy productPolicy
}

// NewService builds the catalog service over the products policy.
func NewService(policy productPolicy) (Service, error) {
	if policy == nil {
		return nil, fmt.Errorf("product policy required")
	}
	return &service{policy: policy}, nil
}

func (s *service) ListByStore(ctx context.Context, storeID uuid.UUID) (syncpolicy.Result[ProductDTO], error) {
	res, err := s.policy.Fetch(ctx, syncpolicy.Query[models.Product]{
		Remote: remote.Query{
			Filter:  remote.Where(remote.Eq("store_id", storeID)),
			OrderBy: []remote.Order{{Column: "name"}},
		},
		CacheIndex: storeID.String(),
	})
	if err != nil {
		return syncpolicy.Result[ProductDTO]{}, err
	}
	return syncpolicy.Map(res, FromModel), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, enums.DataSource, error) {
	m, source, err := s.policy.Get(ctx, id.String(), remote.Where(remote.Eq("id", id)))
	if err != nil {
		return nil, source, err
	}
	dto := FromModel(m)
	return &dto, source, nil
}
