package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/nearbuy-backend/api/middleware"
	"github.com/angelmondragon/nearbuy-backend/api/responses"
	"github.com/angelmondragon/nearbuy-backend/api/validators"
	"github.com/angelmondragon/nearbuy-backend/internal/reviews"
	pkgerrors "github.com/angelmondragon/nearbuy-backend/pkg/errors"
	"github.com/angelmondragon/nearbuy-backend/pkg/logger"
	"github.com/angelmondragon/nearbuy-backend/pkg/pagination"
)

type reviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

func StoreReviews(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeId"), "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit := pagination.ParseLimit(r.URL.Query().Get("limit"))

		res, err := svc.ListStoreReviews(r.Context(), storeID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSourced(w, res.Source, res.Items)
	}
}

// UpsertStoreReview writes the caller's single review of a store.
func UpsertStoreReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeId"), "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AddOrUpdateReview(r.Context(), reviews.ReviewInput{
			StoreID:      storeID,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Rating:       req.Rating,
			Comment:      req.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func DeleteReview(svc reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "review service unavailable"))
			return
		}

		customer, ok := middleware.CustomerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}
		reviewID, err := validators.ParseUUIDParam(chi.URLParam(r, "reviewId"), "reviewId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteReview(r.Context(), reviewID, customer.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
