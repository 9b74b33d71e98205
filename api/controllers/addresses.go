package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	"github.com/angelmondragon/nearbuy-backend/internal/address"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
)

type addAddressRequest struct {
	Line        string   `json:"line" validate:"omitempty,max=500"`
	Building    *string  `json:"building,omitempty" validate:"omitempty,max=120"`
	Flat        *string  `json:"flat,omitempty" validate:"omitempty,max=60"`
	Lat         *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng         *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	Label       string   `json:"label" validate:"omitempty,max=40"`
	PlaceID     string   `json:"place_id" validate:"omitempty,max=300"`
	MakeDefault bool     `json:"make_default"`
}

func ListAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := addressCaller(w, r, svc, logg)
		if !ok {
			return
		}
		res, err := svc.List(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

// AddAddress saves an address from coordinates or from a Places id.
func AddAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := addressCaller(w, r, svc, logg)
		if !ok {
			return
		}

		var req addAddressRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Add(r.Context(), address.AddInput{
			OwnerID:     owner,
			Line:        req.Line,
			Building:    req.Building,
			Flat:        req.Flat,
			Lat:         req.Lat,
			Lng:         req.Lng,
			Label:       req.Label,
			PlaceID:     req.PlaceID,
			MakeDefault: req.MakeDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func DefaultAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := addressCaller(w, r, svc, logg)
		if !ok {
			return
		}
		dto, source, err := svc.Default(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, source, dto)
	}
}

func SetDefaultAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := addressCaller(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "addressId"), "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.SetDefault(r.Context(), owner, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DeleteAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := addressCaller(w, r, svc, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "addressId"), "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), owner, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SuggestAddresses proxies Places autocomplete, biased towards lat/lng
// when both are given.
func SuggestAddresses(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := addressCaller(w, r, svc, logg); !ok {
			return
		}

		q := r.URL.Query()
		req := address.SuggestRequest{
			Query:    validators.SanitizeString(q.Get("q"), 200),
			Country:  validators.SanitizeString(q.Get("country"), 2),
			Language: validators.SanitizeString(q.Get("language"), 10),
		}
		if q.Get("lat") != "" || q.Get("lng") != "" {
			near, err := parseCenter(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			req.Near = &near
		}

		suggestions, err := svc.Suggest(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}

// ResolvePlace returns the address fields and coordinates for a place id.
func ResolvePlace(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := addressCaller(w, r, svc, logg); !ok {
			return
		}
		place, err := svc.Resolve(r.Context(), chi.URLParam(r, "placeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, place)
	}
}

func addressCaller(w http.ResponseWriter, r *http.Request, svc address.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
		return uuid.Nil, false
	}
	customer, ok := middleware.CustomerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
		return uuid.Nil, false
	}
	return customer.ID, true
}
