package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmKnownPair(t *testing.T) {
	store := GeographyPoint{Lat: 19.0, Lng: 72.8}
	customer := GeographyPoint{Lat: 19.005, Lng: 72.805}

	d := store.DistanceKm(customer)
	assert.InDelta(t, 0.765, d, 0.01)
	assert.LessOrEqual(t, d, 1.0)
	assert.Greater(t, d, 0.5)
	assert.InDelta(t, d, customer.DistanceKm(store), 1e-12)
	assert.Zero(t, store.DistanceKm(store))
}

func TestDistanceKmOneDegreeOfLatitude(t *testing.T) {
	d := GeographyPoint{Lat: 0, Lng: 0}.DistanceKm(GeographyPoint{Lat: 1, Lng: 0})
	assert.InDelta(t, 111.195, d, 0.01)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, GeographyPoint{Lat: 19, Lng: 72.8}.Validate())
	assert.Error(t, GeographyPoint{Lat: 91, Lng: 0}.Validate())
	assert.Error(t, GeographyPoint{Lat: 0, Lng: -181}.Validate())
}
