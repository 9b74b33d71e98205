package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

// SearchRadiusKm is the radius applied to text search. It does not follow
// the radius callers pass to FindNearby.
const SearchRadiusKm = 5.0

type storeRepository interface {
	All(ctx context.Context) (syncpolicy.Result[models.Store], error)
	Search(ctx context.Context, term string) (syncpolicy.Result[models.Store], error)
	FindByID(ctx context.Context, id uuid.UUID) (models.Store, enums.DataSource, error)
}

// Service exposes store discovery.
type Service interface {
	FindNearby(ctx context.Context, center types.GeographyPoint, radiusKm float64) (syncpolicy.Result[NearbyStore], error)
	Search(ctx context.Context, term string, center types.GeographyPoint) (syncpolicy.Result[NearbyStore], error)
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, enums.DataSource, error)
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

// FindNearby returns eligible stores within radiusKm of center, nearest
// first. When the remote is unreachable the cached stores are returned
// without the radius filter; the result source says so.
func (s *service) FindNearby(ctx context.Context, center types.GeographyPoint, radiusKm float64) (syncpolicy.Result[NearbyStore], error) {
	if err := center.Validate(); err != nil {
		return syncpolicy.Result[NearbyStore]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location")
	}
	if radiusKm <= 0 {
		return syncpolicy.Result[NearbyStore]{}, pkgerrors.New(pkgerrors.CodeValidation, "radius must be positive")
	}

	res, err := s.repo.All(ctx)
	if err != nil {
		return syncpolicy.Result[NearbyStore]{}, err
	}
	return rank(res, center, radiusKm), nil
}

func (s *service) Search(ctx context.Context, term string, center types.GeographyPoint) (syncpolicy.Result[NearbyStore], error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return syncpolicy.Result[NearbyStore]{}, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	if err := center.Validate(); err != nil {
		return syncpolicy.Result[NearbyStore]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location")
	}

	res, err := s.repo.Search(ctx, term)
	if err != nil {
		return syncpolicy.Result[NearbyStore]{}, err
	}
	return rank(res, center, SearchRadiusKm), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, enums.DataSource, error) {
	store, source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, source, err
	}
	return FromModel(&store), source, nil
}

// rank keeps eligible stores, annotates distance and sorts nearest first.
// The radius only applies to remote results.
func rank(res syncpolicy.Result[models.Store], center types.GeographyPoint, radiusKm float64) syncpolicy.Result[NearbyStore] {
	applyRadius := res.Source == enums.DataSourceRemote

	out := syncpolicy.Result[NearbyStore]{Items: []NearbyStore{}, Source: res.Source, Cause: res.Cause}
	for i := range res.Items {
		store := res.Items[i]
		if !store.Eligible() {
			continue
		}
		distance := center.DistanceKm(store.Location())
		if applyRadius && distance > radiusKm {
			continue
		}
		out.Items = append(out.Items, NearbyStore{StoreDTO: *FromModel(&store), DistanceKm: distance})
	}

	sort.SliceStable(out.Items, func(i, j int) bool {
		return out.Items[i].DistanceKm < out.Items[j].DistanceKm
	})
	return out
}
