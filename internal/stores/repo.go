package stores

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type storePolicy interface {
	Fetch(ctx context.Context, q syncpolicy.Query[models.Store]) (syncpolicy.Result[models.Store], error)
	Get(ctx context.Context, id string, f remote.Filter) (models.Store, enums.DataSource, error)
}

// Repository translates store lookups into sync policy queries.
type Repository struct {
	policy storePolicy
}

// NewRepository binds the repository to the stores policy.
func NewRepository(policy storePolicy) *Repository {
	return &Repository{policy: policy}
}

// All reads every store. Filtering happens in the service.
func (r *Repository) All(ctx context.Context) (syncpolicy.Result[models.Store], error) {
	return r.policy.Fetch(ctx, syncpolicy.Query[models.Store]{
		CacheIndex: models.StoreIndexAll,
	})
}

// Search reads eligible stores whose name, address or description contains term.
func (r *Repository) Search(ctx context.Context, term string) (syncpolicy.Result[models.Store], error) {
	return r.policy.Fetch(ctx, syncpolicy.Query[models.Store]{
		Remote: remote.Query{Filter: remote.Where(
			remote.AnyOf(
				remote.ILike("name", term),
				remote.ILike("address", term),
				remote.ILike("description", term),
			),
			remote.Eq("subscription_status", enums.SubscriptionStatusActive),
			remote.Eq("is_open", true),
		)},
		CacheIndex: models.StoreIndexAll,
		Match: func(s models.Store) bool {
			return s.Eligible() && matchesTerm(s, term)
		},
	})
}

// FindByID reads one store.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (models.Store, enums.DataSource, error) {
	return r.policy.Get(ctx, id.String(), remote.Where(remote.Eq("id", id)))
}

func matchesTerm(s models.Store, term string) bool {
	needle := strings.ToLower(term)
	for _, field := range []string{s.Name, s.Address, s.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
