package product

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache/cachetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote/remotetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

func newTestService(t *testing.T) (Service, *remotetest.Store) {
	t.Helper()
	rs := remotetest.New()
	policy, err := syncpolicy.New[models.Product](models.TableProducts, rs, cachetest.New(t), syncpolicy.Options{})
	require.NoError(t, err)
	svc, err := NewService(policy)
	require.NoError(t, err)
	return svc, rs
}

func TestListByStoreScopesAndFallsBack(t *testing.T) {
	svc, rs := newTestService(t)
	ctx := context.Background()
	storeA, storeB := uuid.New(), uuid.New()
	rs.Seed(models.TableProducts, []models.Product{
		{ID: uuid.New(), StoreID: storeA, Name: "Rice", Price: decimal.RequireFromString("55.50")},
		{ID: uuid.New(), StoreID: storeB, Name: "Bread", Price: decimal.NewFromInt(40)},
		{ID: uuid.New(), StoreID: storeA, Name: "Atta", Price: decimal.NewFromInt(300)},
	})

	res, err := svc.ListByStore(ctx, storeA)
	require.NoError(t, err)
	assert.Equal(t, enums.DataSourceRemote, res.Source)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Atta", res.Items[0].Name)
	assert.True(t, res.Items[1].Price.Equal(decimal.RequireFromString("55.5")))

	rs.FailAll(errors.New("offline"))
	res, err = svc.ListByStore(ctx, storeA)
	require.NoError(t, err)
	assert.Equal(t, enums.DataSourceCache, res.Source)
	assert.Len(t, res.Items, 2)

	res, err = svc.ListByStore(ctx, storeB)
	require.NoError(t, err)
	assert.Empty(t, res.Items, "store B was never cached")
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.GetByID(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
