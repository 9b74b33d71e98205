package address

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nearbuy-backend/pkg/db"
	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	"github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

type addressPolicy interface {
	Table() string
	CacheOnly() bool
	Fetch(ctx context.Context, q syncpolicy.Query[models.Address]) (syncpolicy.Result[models.Address], error)
	Remote(ctx context.Context, q remote.Query) ([]models.Address, error)
	Cached(ctx context.Context, index string, match func(models.Address) bool) ([]models.Address, error)
	Insert(ctx context.Context, rows ...models.Address) ([]models.Address, error)
	Update(ctx context.Context, f remote.Filter, patch map[string]any, updated ...models.Address) error
	Delete(ctx context.Context, f remote.Filter, ids ...string) error
	InTx(ctx context.Context, fn func(ctx context.Context, tx remote.Store) error) (bool, error)
	WriteThrough(ctx context.Context, rows ...models.Address) error
}

// Service is a customer's address book. Each owner has at most one default
// address.
type Service interface {
	List(ctx context.Context, ownerID uuid.UUID) (syncpolicy.Result[AddressDTO], error)
	Add(ctx context.Context, in AddInput) (*AddressDTO, error)
	SetDefault(ctx context.Context, ownerID, id uuid.UUID) (*AddressDTO, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Default(ctx context.Context, ownerID uuid.UUID) (*AddressDTO, enums.DataSource, error)
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, placeID string) (*PlaceAddress, error)
}

type service struct {
	addresses addressPolicy
	places    placesClient
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the address book. places may be nil, in which case
// Suggest, Resolve and place-id adds report REMOTE_UNAVAILABLE.
func NewService(policy addressPolicy, places placesClient, logg *logger.Logger) (Service, error) {
	if policy == nil {
		return nil, fmt.Errorf("address policy required")
	}
	return &service{addresses: policy, places: places, logg: logg, now: time.Now}, nil
}

// List returns the owner's addresses, default first, then newest.
func (s *service) List(ctx context.Context, ownerID uuid.UUID) (syncpolicy.Result[AddressDTO], error) {
	if ownerID == uuid.Nil {
		return syncpolicy.Result[AddressDTO]{}, errors.New(errors.CodeValidation, "owner id is required")
	}
	res, err := s.addresses.Fetch(ctx, syncpolicy.Query[models.Address]{
		Remote: remote.Query{
			Filter:  remote.Where(remote.Eq("owner_id", ownerID)),
			OrderBy: []remote.Order{{Column: "created_at", Desc: true}},
		},
		CacheIndex: ownerID.String(),
	})
	if err != nil {
		return syncpolicy.Result[AddressDTO]{}, err
	}
	sortAddresses(res.Items)
	return syncpolicy.Map(res, FromModel), nil
}

func (s *service) Add(ctx context.Context, in AddInput) (*AddressDTO, error) {
	if in.OwnerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "owner id is required")
	}

	row, err := s.buildAddress(ctx, in)
	if err != nil {
		return nil, err
	}

	existing, err := s.owned(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}
	row.IsDefault = len(existing) == 0

	rows, err := s.addresses.Insert(ctx, row)
	if err != nil && row.IsDefault && isSecondDefault(err) {
		// a concurrent Add claimed the owner's first default
		row.IsDefault = false
		rows, err = s.addresses.Insert(ctx, row)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && rows[0].ID != uuid.Nil {
		row = rows[0]
	}

	if in.MakeDefault && !row.IsDefault {
		return s.SetDefault(ctx, in.OwnerID, row.ID)
	}
	dto := FromModel(row)
	return &dto, nil
}

// singleDefaultIndex is the partial unique index allowing one default per
// owner. sqlite reports it by column rather than by name.
const singleDefaultIndex = "addresses_owner_single_default"

func isSecondDefault(err error) bool {
	return db.IsUniqueViolation(err, singleDefaultIndex) || db.IsUniqueViolation(err, "addresses.owner_id")
}

// SetDefault makes id the owner's only default. With a transactional remote
// both flag writes commit together; otherwise the previous default is
// cleared first and restored if the second write fails.
func (s *service) SetDefault(ctx context.Context, ownerID, id uuid.UUID) (*AddressDTO, error) {
	rows, err := s.owned(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	idx := indexOf(rows, id)
	if idx < 0 {
		return nil, errors.New(errors.CodeNotFound, "address not found")
	}

	clearFilter := remote.Where(remote.Eq("owner_id", ownerID), remote.Eq("is_default", true))
	setFilter := remote.Where(remote.Eq("id", id), remote.Eq("owner_id", ownerID))
	now := s.now().UTC()

	atomic, err := s.addresses.InTx(ctx, func(ctx context.Context, tx remote.Store) error {
		table := s.addresses.Table()
		if err := tx.Update(ctx, table, map[string]any{"is_default": false, "updated_at": now}, clearFilter); err != nil {
			return err
		}
		return tx.Update(ctx, table, map[string]any{"is_default": true, "updated_at": now}, setFilter)
	})
	if err != nil {
		return nil, err
	}
	if !atomic {
		if err := s.clearThenSet(ctx, rows, id, clearFilter, setFilter, now); err != nil {
			return nil, err
		}
	}

	for i := range rows {
		if rows[i].IsDefault != (rows[i].ID == id) {
			rows[i].IsDefault = rows[i].ID == id
			rows[i].UpdatedAt = now
		}
	}
	if err := s.addresses.WriteThrough(ctx, rows...); err != nil {
		s.warn(ctx, ownerID, "address cache refresh failed", err)
	}
	dto := FromModel(rows[idx])
	return &dto, nil
}

func (s *service) clearThenSet(ctx context.Context, rows []models.Address, id uuid.UUID, clearFilter, setFilter remote.Filter, now time.Time) error {
	if err := s.addresses.Update(ctx, clearFilter, map[string]any{"is_default": false, "updated_at": now}); err != nil {
		return err
	}
	setErr := s.addresses.Update(ctx, setFilter, map[string]any{"is_default": true, "updated_at": now})
	if setErr == nil {
		return nil
	}

	var restoreErr error
	for _, row := range rows {
		if row.IsDefault && row.ID != id {
			restoreErr = multierr.Append(restoreErr,
				s.addresses.Update(ctx, remote.Where(remote.Eq("id", row.ID)), map[string]any{"is_default": true}))
		}
	}
	if restoreErr != nil && len(rows) > 0 {
		s.warn(ctx, rows[0].OwnerID, "previous default address could not be restored", restoreErr)
	}
	return setErr
}

// Delete removes an owned address. The remaining addresses keep their flags.
func (s *service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	rows, err := s.owned(ctx, ownerID)
	if err != nil {
		return err
	}
	if indexOf(rows, id) < 0 {
		return errors.New(errors.CodeNotFound, "address not found")
	}
	return s.addresses.Delete(ctx, remote.Where(remote.Eq("id", id), remote.Eq("owner_id", ownerID)), id.String())
}

// Default returns the owner's default address and where it was read from.
func (s *service) Default(ctx context.Context, ownerID uuid.UUID) (*AddressDTO, enums.DataSource, error) {
	res, err := s.addresses.Fetch(ctx, syncpolicy.Query[models.Address]{
		Remote: remote.Query{
			Filter: remote.Where(remote.Eq("owner_id", ownerID), remote.Eq("is_default", true)),
		},
		CacheIndex: ownerID.String(),
		Match:      func(a models.Address) bool { return a.IsDefault },
	})
	if err != nil {
		return nil, res.Source, err
	}
	switch len(res.Items) {
	case 0:
		return nil, res.Source, errors.New(errors.CodeNotFound, "no default address")
	case 1:
		dto := FromModel(res.Items[0])
		return &dto, res.Source, nil
	default:
		ids := make([]string, 0, len(res.Items))
		for _, row := range res.Items {
			ids = append(ids, row.ID.String())
		}
		return nil, res.Source, errors.New(errors.CodeConflict, "multiple default addresses").
			WithDetails(map[string]any{"address_ids": ids})
	}
}

func (s *service) buildAddress(ctx context.Context, in AddInput) (models.Address, error) {
	now := s.now().UTC()
	row := models.Address{
		ID:        uuid.New(),
		OwnerID:   in.OwnerID,
		Line:      strings.TrimSpace(in.Line),
		Building:  trimmed(in.Building),
		Flat:      trimmed(in.Flat),
		Label:     strings.TrimSpace(in.Label),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if placeID := strings.TrimSpace(in.PlaceID); placeID != "" {
		place, err := s.Resolve(ctx, placeID)
		if err != nil {
			return row, err
		}
		if row.Line == "" {
			row.Line = place.Line
		}
		if row.Building == nil {
			row.Building = place.Building
		}
		if row.Flat == nil {
			row.Flat = place.Flat
		}
		row.Lat, row.Lng = place.Location.Lat, place.Location.Lng
	} else {
		if in.Lat == nil || in.Lng == nil {
			return row, errors.New(errors.CodeValidation, "coordinates or place_id are required")
		}
		row.Lat, row.Lng = *in.Lat, *in.Lng
	}

	if row.Line == "" {
		return row, errors.New(errors.CodeValidation, "address line is required")
	}
	if err := (types.GeographyPoint{Lat: row.Lat, Lng: row.Lng}).Validate(); err != nil {
		return row, errors.Wrap(errors.CodeValidation, err, "invalid coordinates")
	}
	return row, nil
}

// owned reads the owner's addresses from the remote, or from the cache when
// the policy has no remote.
func (s *service) owned(ctx context.Context, ownerID uuid.UUID) ([]models.Address, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "owner id is required")
	}
	if s.addresses.CacheOnly() {
		return s.addresses.Cached(ctx, ownerID.String(), nil)
	}
	return s.addresses.Remote(ctx, remote.Query{Filter: remote.Where(remote.Eq("owner_id", ownerID))})
}

func (s *service) warn(ctx context.Context, ownerID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithCustomerID(ctx, ownerID.String())
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func sortAddresses(rows []models.Address) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IsDefault != rows[j].IsDefault {
			return rows[i].IsDefault
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}

func indexOf(rows []models.Address, id uuid.UUID) int {
	for i, row := range rows {
		if row.ID == id {
			return i
		}
	}
	return -1
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	return ptr(strings.TrimSpace(*v))
}
