package controllers

import (
	"net/http"
	"strings"

	"github.com/cbieks/authentix/api/responses"
	"github.com/cbieks/authentix/api/validators"
	listingsvc "github.com/cbieks/authentix/internal/listings"
	"github.com/cbieks/authentix/pkg/enums"
	pkgerrors "github.com/cbieks/authentix/pkg/errors"
	"github.com/cbieks/authentix/pkg/logger"
)

type verificationDecisionRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminListings serves the listing review queue. Only the pending queue is
// exposed, so the verification query parameter must name it explicitly.
func AdminListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		filter := strings.TrimSpace(r.URL.Query().Get("verification"))
		status, err := enums.ParseVerificationStatus(filter)
		if err != nil || status != enums.VerificationStatusPending {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "verification filter must be pending"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.ListPendingVerification(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

// AdminSetListingVerification records a review decision on a pending listing.
func AdminSetListingVerification(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		listingID, err := uuidFromParam(r, "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verificationDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseVerificationStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid verification status"))
			return
		}

		listing, err := svc.SetVerification(r.Context(), listingID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}
