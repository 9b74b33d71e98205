package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache/cachetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote/remotetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type warmFixture struct {
	rs       *remotetest.Store
	stores   *syncpolicy.Policy[models.Store]
	products *syncpolicy.Policy[models.Product]
	storeJob *StoreCatalogJob
	prodJob  *ProductCatalogJob
	open     models.Store
	closed   models.Store
}

func newWarmFixture(t *testing.T) *warmFixture {
	t.Helper()
	rs := remotetest.New()
	cache := cachetest.New(t)

	storePolicy, err := syncpolicy.New[models.Store](models.TableStores, rs, cache, syncpolicy.Options{})
	require.NoError(t, err)
	productPolicy, err := syncpolicy.New[models.Product](models.TableProducts, rs, cache, syncpolicy.Options{})
	require.NoError(t, err)
	productSvc, err := product.NewService(productPolicy)
	require.NoError(t, err)

	repo := stores.NewRepository(storePolicy)
	storeJob, err := NewStoreCatalogJob(repo)
	require.NoError(t, err)
	prodJob, err := NewProductCatalogJob(repo, productSvc)
	require.NoError(t, err)

	open := models.Store{ID: uuid.New(), Name: "Gupta General", Lat: 19, Lng: 72.8, IsOpen: true, SubscriptionStatus: enums.SubscriptionStatusActive}
	closed := models.Store{ID: uuid.New(), Name: "Night Mart", Lat: 19, Lng: 72.8, IsOpen: false, SubscriptionStatus: enums.SubscriptionStatusActive}
	rs.Seed(models.TableStores, []models.Store{open, closed})
	rs.Seed(models.TableProducts, []models.Product{
		{ID: uuid.New(), StoreID: open.ID, Name: "Toor Dal", Price: decimal.NewFromInt(140)},
		{ID: uuid.New(), StoreID: closed.ID, Name: "Ice Cream", Price: decimal.NewFromInt(90)},
	})

	return &warmFixture{rs: rs, stores: storePolicy, products: productPolicy, storeJob: storeJob, prodJob: prodJob, open: open, closed: closed}
}

func TestStoreCatalogJobWarmsCache(t *testing.T) {
	f := newWarmFixture(t)
	ctx := context.Background()

	require.NoError(t, f.storeJob.Run(ctx))

	cached, err := f.stores.Cached(ctx, models.StoreIndexAll, nil)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestStoreCatalogJobFailsOnCacheFallback(t *testing.T) {
	f := newWarmFixture(t)
	f.rs.FailAll(errors.New("offline"))

	err := f.storeJob.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
}

func TestProductCatalogJobWarmsEligibleStoresOnly(t *testing.T) {
	f := newWarmFixture(t)
	ctx := context.Background()

	require.NoError(t, f.prodJob.Run(ctx))

	warm, err := f.products.Cached(ctx, f.open.ID.String(), nil)
	require.NoError(t, err)
	assert.Len(t, warm, 1)

	cold, err := f.products.Cached(ctx, f.closed.ID.String(), nil)
	require.NoError(t, err)
	assert.Empty(t, cold)
}

func TestProductCatalogJobReportsFailures(t *testing.T) {
	f := newWarmFixture(t)
	f.rs.Fail(remotetest.OpSelect, models.TableProducts, errors.New("products offline"))

	err := f.prodJob.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), f.open.ID.String())
}
