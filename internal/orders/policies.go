package orders

import (
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

// NewPolicies binds the orders and order_items tables. Cached copies drop
// the delivery address and product names.
func NewPolicies(rs remote.Store, cache localcache.Store, opts syncpolicy.Options) (*syncpolicy.Policy[models.Order], *syncpolicy.Policy[models.OrderItem], error) {
	orderPolicy, err := syncpolicy.New[models.Order](models.TableOrders, rs, cache, opts)
	if err != nil {
		return nil, nil, err
	}
	itemPolicy, err := syncpolicy.New[models.OrderItem](models.TableOrderItems, rs, cache, opts)
	if err != nil {
		return nil, nil, err
	}
	return orderPolicy.WithCacheTransform(StripDisplayFields), itemPolicy.WithCacheTransform(StripItemDisplayFields), nil
}
