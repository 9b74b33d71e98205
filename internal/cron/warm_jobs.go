package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

const (
	StoreCatalogJobName   = "store-catalog"
	ProductCatalogJobName = "product-catalog"
)

type storeLister interface {
	All(ctx context.Context) (syncpolicy.Result[models.Store], error)
}

type productLister interface {
	ListByStore(ctx context.Context, storeID uuid.UUID) (syncpolicy.Result[product.ProductDTO], error)
}

// StoreCatalogJob refreshes the cached copy of every store.
type StoreCatalogJob struct {
	stores storeLister
}

func NewStoreCatalogJob(stores storeLister) (*StoreCatalogJob, error) {
	if stores == nil {
		return nil, fmt.Errorf("store lister required")
	}
	return &StoreCatalogJob{stores: stores}, nil
}

func (j *StoreCatalogJob) Name() string { return StoreCatalogJobName }

func (j *StoreCatalogJob) Run(ctx context.Context) error {
	res, err := j.stores.All(ctx)
	if err != nil {
		return err
	}
	return servedRemotely(res.Source, res.Cause)
}

// ProductCatalogJob refreshes the cached products of every eligible store.
// One failing store does not stop the others.
type ProductCatalogJob struct {
	stores   storeLister
	products productLister
}

func NewProductCatalogJob(stores storeLister, products productLister) (*ProductCatalogJob, error) {
	if stores == nil {
		return nil, fmt.Errorf("store lister required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	return &ProductCatalogJob{stores: stores, products: products}, nil
}

func (j *ProductCatalogJob) Name() string { return ProductCatalogJobName }

// After keeps product warming behind a fresh store catalog.
func (j *ProductCatalogJob) After() []string { return []string{StoreCatalogJobName} }

func (j *ProductCatalogJob) Run(ctx context.Context) error {
	stores, err := j.stores.All(ctx)
	if err != nil {
		return err
	}

	var errs error
	for _, store := range stores.Items {
		if !store.Eligible() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		res, err := j.products.ListByStore(ctx, store.ID)
		if err == nil {
			err = servedRemotely(res.Source, res.Cause)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store %s: %w", store.ID, err))
		}
	}
	return errs
}

// servedRemotely turns a silent cache fallback into a job failure.
func servedRemotely(source enums.DataSource, cause error) error {
	if source == enums.DataSourceRemote {
		return nil
	}
	if cause == nil {
		return fmt.Errorf("remote not consulted")
	}
	return cause
}
