package address

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/nearbuy-backend/pkg/db/models"
	"github.com/angelmondragon/nearbuy-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/localcache/cachetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/maps"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote"
	"github.com/angelmondragon/nearbuy-backend/pkg/remote/remotetest"
	"github.com/angelmondragon/nearbuy-backend/pkg/syncpolicy"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

var errOffline = errors.New("network unreachable")

type fixture struct {
	svc    Service
	rs     *remotetest.Store
	policy *syncpolicy.Policy[models.Address]
	places *fakePlaces
	owner  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := remotetest.New()
	return newFixtureWith(t, mem, mem)
}

func newFixtureWith(t *testing.T, mem *remotetest.Store, rs remote.Store) *fixture {
	t.Helper()
	policy, err := syncpolicy.New[models.Address](models.TableAddresses, rs, cachetest.New(t), syncpolicy.Options{})
	require.NoError(t, err)
	places := &fakePlaces{}
	svc, err := NewService(policy, places, nil)
	require.NoError(t, err)
	return &fixture{svc: svc, rs: mem, policy: policy, places: places, owner: uuid.New()}
}

func (f *fixture) add(t *testing.T, line string) *AddressDTO {
	t.Helper()
	lat, lng := 19.076, 72.8777
	dto, err := f.svc.Add(context.Background(), AddInput{OwnerID: f.owner, Line: line, Lat: &lat, Lng: &lng, Label: "Home"})
	require.NoError(t, err)
	return dto
}

func (f *fixture) remoteRows(t *testing.T) map[uuid.UUID]models.Address {
	t.Helper()
	var rows []models.Address
	f.rs.Rows(models.TableAddresses, &rows)
	out := map[uuid.UUID]models.Address{}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out
}

// plainStore hides InTx so the policy sees a non-transactional remote. The
// nth update (1-based) fails when failUpdate is set.
type plainStore struct {
	remote.Store

	mu         sync.Mutex
	updates    int
	failUpdate int
}

func (p *plainStore) Update(ctx context.Context, table string, patch map[string]any, f remote.Filter) error {
	p.mu.Lock()
	p.updates++
	n := p.updates
	p.mu.Unlock()
	if p.failUpdate > 0 && n == p.failUpdate {
		return errOffline
	}
	return p.Store.Update(ctx, table, patch, f)
}

type fakePlaces struct {
	lastRequest maps.AutocompleteRequest
	details     *maps.PlaceDetails
}

func (f *fakePlaces) Autocomplete(_ context.Context, req maps.AutocompleteRequest) ([]maps.AutocompleteSuggestion, error) {
	f.lastRequest = req
	return []maps.AutocompleteSuggestion{{PlaceID: "place-1", Description: "Bandra West, Mumbai"}}, nil
}

func (f *fakePlaces) ResolvePlace(_ context.Context, placeID string) (*maps.PlaceDetails, error) {
	if f.details == nil || f.details.PlaceID != placeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "place not found")
	}
	return f.details, nil
}

func TestAddFirstAddressBecomesDefault(t *testing.T) {
	f := newFixture(t)

	first := f.add(t, "12 Hill Road")
	second := f.add(t, "4 Carter Road")

	assert.True(t, first.IsDefault)
	assert.False(t, second.IsDefault)

	res, err := f.svc.List(context.Background(), f.owner)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, enums.DataSourceRemote, res.Source)
	assert.Equal(t, first.ID, res.Items[0].ID)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)
	lat, lng := 19.0, 72.8
	bad := 120.0

	cases := map[string]AddInput{
		"no owner":       {Line: "x", Lat: &lat, Lng: &lng},
		"no coordinates": {OwnerID: f.owner, Line: "x"},
		"no line":        {OwnerID: f.owner, Lat: &lat, Lng: &lng},
		"bad latitude":   {OwnerID: f.owner, Line: "x", Lat: &bad, Lng: &lng},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Add(context.Background(), in)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
	assert.Zero(t, f.rs.Calls(remotetest.OpInsert, models.TableAddresses))
}

func TestAddFromPlaceID(t *testing.T) {
	f := newFixture(t)
	f.places.details = &maps.PlaceDetails{
		PlaceID:          "place-1",
		FormattedAddress: "Pali Hill, Bandra West, Mumbai 400050",
		Location:         maps.LatLng{Latitude: 19.0662, Longitude: 72.8258},
		AddressComponents: []maps.AddressComponent{
			{LongName: "Sea Breeze", Types: []string{"premise"}},
			{LongName: "7B", Types: []string{"subpremise"}},
		},
	}

	dto, err := f.svc.Add(context.Background(), AddInput{OwnerID: f.owner, PlaceID: "place-1", Label: "Work"})
	require.NoError(t, err)

	assert.Equal(t, "Pali Hill, Bandra West, Mumbai 400050", dto.Line)
	assert.Equal(t, types.GeographyPoint{Lat: 19.0662, Lng: 72.8258}, dto.Location)
	require.NotNil(t, dto.Building)
	assert.Equal(t, "Sea Breeze", *dto.Building)
	require.NotNil(t, dto.Flat)
	assert.Equal(t, "7B", *dto.Flat)
}

func TestAddWithMakeDefault(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "12 Hill Road")

	lat, lng := 19.05, 72.83
	second, err := f.svc.Add(context.Background(), AddInput{OwnerID: f.owner, Line: "4 Carter Road", Lat: &lat, Lng: &lng, MakeDefault: true})
	require.NoError(t, err)
	assert.True(t, second.IsDefault)

	rows := f.remoteRows(t)
	assert.False(t, rows[first.ID].IsDefault)
	assert.True(t, rows[second.ID].IsDefault)
}

func TestSetDefaultInTransaction(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "12 Hill Road")
	second := f.add(t, "4 Carter Road")

	dto, err := f.svc.SetDefault(context.Background(), f.owner, second.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsDefault)

	rows := f.remoteRows(t)
	assert.False(t, rows[first.ID].IsDefault)
	assert.True(t, rows[second.ID].IsDefault)

	cached, err := f.policy.Cached(context.Background(), f.owner.String(), nil)
	require.NoError(t, err)
	for _, row := range cached {
		assert.Equal(t, row.ID == second.ID, row.IsDefault)
	}
}

func TestSetDefaultTransactionFailureLeavesFlags(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "12 Hill Road")
	second := f.add(t, "4 Carter Road")

	f.rs.Fail(remotetest.OpUpdate, models.TableAddresses, errOffline)
	_, err := f.svc.SetDefault(context.Background(), f.owner, second.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))

	rows := f.remoteRows(t)
	assert.True(t, rows[first.ID].IsDefault)
	assert.False(t, rows[second.ID].IsDefault)
}

func TestSetDefaultWithoutTransactions(t *testing.T) {
	mem := remotetest.New()
	f := newFixtureWith(t, mem, &plainStore{Store: mem})
	first := f.add(t, "12 Hill Road")
	second := f.add(t, "4 Carter Road")

	_, err := f.svc.SetDefault(context.Background(), f.owner, second.ID)
	require.NoError(t, err)

	rows := f.remoteRows(t)
	assert.False(t, rows[first.ID].IsDefault)
	assert.True(t, rows[second.ID].IsDefault)
}

func TestSetDefaultRestoresPreviousWhenSetFails(t *testing.T) {
	mem := remotetest.New()
	plain := &plainStore{Store: mem}
	f := newFixtureWith(t, mem, plain)
	first := f.add(t, "12 Hill Road")
	second := f.add(t, "4 Carter Road")

	plain.failUpdate = 2
	_, err := f.svc.SetDefault(context.Background(), f.owner, second.ID)
	require.Error(t, err)

	rows := f.remoteRows(t)
	assert.True(t, rows[first.ID].IsDefault)
	assert.False(t, rows[second.ID].IsDefault)
}

func TestSetDefaultUnknownAddress(t *testing.T) {
	f := newFixture(t)
	f.add(t, "12 Hill Road")

	_, err := f.svc.SetDefault(context.Background(), f.owner, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDefaultConflictOnMultipleDefaults(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()
	f.rs.Seed(models.TableAddresses, []models.Address{
		{ID: uuid.New(), OwnerID: f.owner, Line: "A", Lat: 19, Lng: 72.8, IsDefault: true, CreatedAt: now},
		{ID: uuid.New(), OwnerID: f.owner, Line: "B", Lat: 19, Lng: 72.8, IsDefault: true, CreatedAt: now},
	})

	_, _, err := f.svc.Default(context.Background(), f.owner)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestDefaultFromCacheWhenRemoteDown(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "12 Hill Road")
	f.add(t, "4 Carter Road")

	f.rs.FailAll(errOffline)
	dto, source, err := f.svc.Default(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, enums.DataSourceCache, source)
	assert.Equal(t, first.ID, dto.ID)
}

func TestDefaultNotFound(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Default(context.Background(), f.owner)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteScopedToOwner(t *testing.T) {
	f := newFixture(t)
	first := f.add(t, "12 Hill Road")

	err := f.svc.Delete(context.Background(), uuid.New(), first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.Delete(context.Background(), f.owner, first.ID))
	assert.Empty(t, f.remoteRows(t))

	cached, err := f.policy.Cached(context.Background(), f.owner.String(), nil)
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestSuggestBiasesTowardLocation(t *testing.T) {
	f := newFixture(t)
	near := types.GeographyPoint{Lat: 19.076, Lng: 72.8777}

	got, err := f.svc.Suggest(context.Background(), SuggestRequest{Query: " bandra ", Country: "in", Near: &near})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "place-1", got[0].PlaceID)

	assert.Equal(t, "bandra", f.places.lastRequest.Input)
	assert.Equal(t, []string{"IN"}, f.places.lastRequest.IncludedRegionCodes)
	require.NotNil(t, f.places.lastRequest.LocationBias)
	assert.Equal(t, 10000.0, f.places.lastRequest.LocationBias.Circle.RadiusMeters)
}

func TestSuggestWithoutPlacesClient(t *testing.T) {
	policy, err := syncpolicy.New[models.Address](models.TableAddresses, remotetest.New(), cachetest.New(t), syncpolicy.Options{})
	require.NoError(t, err)
	svc, err := NewService(policy, nil, nil)
	require.NoError(t, err)

	_, err = svc.Suggest(context.Background(), SuggestRequest{Query: "bandra"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))
	_, err = svc.Resolve(context.Background(), "place-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))
}

func TestMapPlaceDetailsRequiresLocation(t *testing.T) {
	_, err := mapPlaceDetails(&maps.PlaceDetails{PlaceID: "p", FormattedAddress: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))

	got, err := mapPlaceDetails(&maps.PlaceDetails{
		PlaceID:  "p",
		Location: maps.LatLng{Latitude: 12.97, Longitude: 77.59},
		AddressComponents: []maps.AddressComponent{
			{LongName: "MG Road", Types: []string{"route"}},
			{LongName: "Bengaluru", Types: []string{"locality"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "MG Road, Bengaluru", got.Line)
	assert.Nil(t, got.Building)
}

// firstDefaultRace inserts another default for the owner just before the
// first insert lands, the way a concurrent Add would.
type firstDefaultRace struct {
	remote.Store
	mem    *remotetest.Store
	winner models.Address
	raced  bool
}

func (r *firstDefaultRace) Insert(ctx context.Context, table string, rows any) error {
	if table == models.TableAddresses && !r.raced {
		r.raced = true
		r.mem.Seed(table, []models.Address{r.winner})
		return errors.New("UNIQUE constraint failed: addresses.owner_id")
	}
	return r.Store.Insert(ctx, table, rows)
}

func TestAddConcurrentFirstAddressKeepsSingleDefault(t *testing.T) {
	mem := remotetest.New()
	race := &firstDefaultRace{Store: mem, mem: mem}
	f := newFixtureWith(t, mem, race)
	race.winner = models.Address{ID: uuid.New(), OwnerID: f.owner, Line: "9 Pali Hill", Lat: 19.07, Lng: 72.83, IsDefault: true}

	added := f.add(t, "12 Hill Road")
	assert.False(t, added.IsDefault)

	defaults := 0
	for _, row := range f.remoteRows(t) {
		if row.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)

	def, _, err := f.svc.Default(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, race.winner.ID, def.ID)
}

func TestAddSurfacesOtherInsertFailures(t *testing.T) {
	f := newFixture(t)
	f.rs.Fail(remotetest.OpInsert, models.TableAddresses, errOffline)

	lat, lng := 19.076, 72.8777
	_, err := f.svc.Add(context.Background(), AddInput{OwnerID: f.owner, Line: "12 Hill Road", Lat: &lat, Lng: &lng})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRemoteUnavailable))
	assert.Equal(t, 1, f.rs.Calls(remotetest.OpInsert, models.TableAddresses))
}
