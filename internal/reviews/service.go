package reviews

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/pagination"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
)

type reviewPolicy interface {
	Fetch(ctx context.Context, q syncpolicy.Query[models.StoreReview]) (syncpolicy.Result[models.StoreReview], error)
	Remote(ctx context.Context, q remote.Query) ([]models.StoreReview, error)
	Cached(ctx context.Context, index string, match func(models.StoreReview) bool) ([]models.StoreReview, error)
	Insert(ctx context.Context, rows ...models.StoreReview) ([]models.StoreReview, error)
	Update(ctx context.Context, f remote.Filter, patch map[string]any, updated ...models.StoreReview) error
	Delete(ctx context.Context, f remote.Filter, ids ...string) error
}

type storePolicy interface {
	Lookup(ctx context.Context, id string) (models.Store, bool, error)
	Update(ctx context.Context, f remote.Filter, patch map[string]any, updated ...models.Store) error
	WriteThrough(ctx context.Context, rows ...models.Store) error
}

// Service writes reviews and keeps each store's aggregate rating current.
type Service interface {
	AddOrUpdateReview(ctx context.Context, in ReviewInput) (*ReviewDTO, error)
	DeleteReview(ctx context.Context, id, customerID uuid.UUID) error
	ListStoreReviews(ctx context.Context, storeID uuid.UUID, limit int) (syncpolicy.Result[ReviewDTO], error)
}

type service struct {
	reviews reviewPolicy
	stores  storePolicy
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(reviewPol reviewPolicy, storePol storePolicy, logg *logger.Logger) (Service, error) {
	if reviewPol == nil {
		return nil, fmt.Errorf("review policy required")
	}
	if storePol == nil {
		return nil, fmt.Errorf("store policy required")
	}
	return &service{reviews: reviewPol, stores: storePol, logg: logg, now: time.Now}, nil
}

// AddOrUpdateReview keeps at most one review per (store, customer); a second
// submission replaces the first.
func (s *service) AddOrUpdateReview(ctx context.Context, in ReviewInput) (*ReviewDTO, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}
	comment := normalizeComment(in.Comment)

	existing, err := s.find(ctx, remote.Where(remote.Eq("store_id", in.StoreID), remote.Eq("customer_id", in.CustomerID)))
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var saved models.StoreReview
	if existing == nil {
		saved = models.StoreReview{
			ID:           uuid.New(),
			StoreID:      in.StoreID,
			CustomerID:   in.CustomerID,
			CustomerName: strings.TrimSpace(in.CustomerName),
			Rating:       in.Rating,
			Comment:      comment,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		rows, err := s.reviews.Insert(ctx, saved)
		switch {
		case err != nil && db.IsUniqueViolation(err, ""):
			// a concurrent submission won the insert; update it instead
			existing, err = s.find(ctx, remote.Where(remote.Eq("store_id", in.StoreID), remote.Eq("customer_id", in.CustomerID)))
			if err != nil {
				return nil, err
			}
			if existing == nil {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "review changed concurrently")
			}
		case err != nil:
			return nil, err
		case len(rows) > 0:
			saved = rows[0]
		}
	}

	if existing != nil {
		saved = *existing
		saved.Rating = in.Rating
		saved.Comment = comment
		if name := strings.TrimSpace(in.CustomerName); name != "" {
			saved.CustomerName = name
		}
		saved.UpdatedAt = now
		patch := map[string]any{
			"rating":        saved.Rating,
			"comment":       saved.Comment,
			"customer_name": saved.CustomerName,
			"updated_at":    saved.UpdatedAt,
		}
		if err := s.reviews.Update(ctx, remote.Where(remote.Eq("id", saved.ID)), patch, saved); err != nil {
			return nil, err
		}
	}

	s.recompute(ctx, in.StoreID)
	dto := FromModel(saved)
	return &dto, nil
}

// DeleteReview removes a review only when it belongs to customerID.
func (s *service) DeleteReview(ctx context.Context, id, customerID uuid.UUID) error {
	scope := remote.Where(remote.Eq("id", id), remote.Eq("customer_id", customerID))
	review, err := s.find(ctx, scope)
	if err != nil {
		return err
	}
	if review == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if err := s.reviews.Delete(ctx, scope, id.String()); err != nil {
		return err
	}
	s.recompute(ctx, review.StoreID)
	return nil
}

func (s *service) ListStoreReviews(ctx context.Context, storeID uuid.UUID, limit int) (syncpolicy.Result[ReviewDTO], error) {
	limit = pagination.NormalizeLimit(limit)
	res, err := s.reviews.Fetch(ctx, syncpolicy.Query[models.StoreReview]{
		Remote: remote.Query{
			Filter:  remote.Where(remote.Eq("store_id", storeID)),
			OrderBy: []remote.Order{{Column: "updated_at", Desc: true}},
			Limit:   limit,
		},
		CacheIndex: storeID.String(),
	})
	if err != nil {
		return syncpolicy.Result[ReviewDTO]{}, err
	}
	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].UpdatedAt.After(res.Items[j].UpdatedAt)
	})
	if len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}
	return syncpolicy.Map(res, FromModel), nil
}

// recompute refreshes the store's aggregate rating from the remote reviews.
// When the remote cannot be read or written the mean comes from the cached
// reviews and only the cached store is touched. Failures are logged.
func (s *service) recompute(ctx context.Context, storeID uuid.UUID) {
	rows, err := s.reviews.Remote(ctx, remote.Query{Filter: remote.Where(remote.Eq("store_id", storeID))})
	if err == nil {
		mean := MeanRating(rows)
		updated := s.cachedStore(ctx, storeID, mean)
		err = s.stores.Update(ctx, remote.Where(remote.Eq("id", storeID)), map[string]any{"rating": mean}, updated...)
		if err == nil {
			return
		}
	}
	s.warn(ctx, storeID, "rating recompute falling back to cache", err)

	cached, err := s.reviews.Cached(ctx, storeID.String(), nil)
	if err != nil {
		s.warn(ctx, storeID, "rating recompute failed", err)
		return
	}
	if updated := s.cachedStore(ctx, storeID, MeanRating(cached)); len(updated) > 0 {
		if err := s.stores.WriteThrough(ctx, updated...); err != nil {
			s.warn(ctx, storeID, "rating recompute failed", err)
		}
	}
}

// cachedStore returns the cached store with rating applied, if cached.
func (s *service) cachedStore(ctx context.Context, storeID uuid.UUID, rating float64) []models.Store {
	store, found, err := s.stores.Lookup(ctx, storeID.String())
	if err != nil || !found {
		return nil
	}
	store.Rating = rating
	return []models.Store{store}
}

func (s *service) find(ctx context.Context, f remote.Filter) (*models.StoreReview, error) {
	rows, err := s.reviews.Remote(ctx, remote.Query{Filter: f, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *service) warn(ctx context.Context, storeID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithStoreID(ctx, storeID.String())
	if err != nil {
		ctx = s.logg.WithField(ctx, "error", err.Error())
	}
	s.logg.Warn(ctx, msg)
}

func validateReview(in ReviewInput) error {
	switch {
	case in.StoreID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	case in.CustomerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	case in.Rating < 1 || in.Rating > 5:
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

func normalizeComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
