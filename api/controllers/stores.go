package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	product "github.com/angelmondragon/nearbuy-backend/internal/products"
	"github.com/angelmondragon/nearbuy-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/types"
)

const (
	defaultRadiusKm = 5.0
	maxRadiusKm     = 50.0
)

// NearbyStores lists eligible stores around lat/lng, nearest first.
func NearbyStores(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		center, err := parseCenter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseQueryFloat(r, "radius_km", false, defaultRadiusKm, 0.1, maxRadiusKm)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.FindNearby(r.Context(), center, radius)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

// SearchStores matches q against store names within the search radius.
func SearchStores(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		center, err := parseCenter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		term := validators.SanitizeString(r.URL.Query().Get("q"), 100)

		res, err := svc.Search(r.Context(), term, center)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

func StoreDetail(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "store service unavailable"))
			return
		}

		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeId"), "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, source, err := svc.GetByID(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, source, dto)
	}
}

// StoreProducts lists a store's catalog.
func StoreProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeId"), "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		res, err := svc.ListByStore(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

func parseCenter(r *http.Request) (types.GeographyPoint, error) {
	lat, err := validators.ParseQueryFloat(r, "lat", true, 0, -90, 90)
	if err != nil {
		return types.GeographyPoint{}, err
	}
	lng, err := validators.ParseQueryFloat(r, "lng", true, 0, -180, 180)
	if err != nil {
		return types.GeographyPoint{}, err
	}
	return types.GeographyPoint{Lat: lat, Lng: lng}, nil
}
