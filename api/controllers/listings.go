package controllers

import (
	"net/http"

	"github.com/angelmondragon/marketplace-ledger/api/responses"
	"github.com/angelmondragon/marketplace-ledger/api/validators"
	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	pkgerrors "github.com/angelmondragon/marketplace-ledger/pkg/errors"
	"github.com/angelmondragon/marketplace-ledger/pkg/logger"
	"github.com/angelmondragon/marketplace-ledger/pkg/money"
)

// createListingRequest carries the unit price as a decimal string in the
// configured currency, e.g. "12.50".
type createListingRequest struct {
	ProductIndex *uint32 `json:"product_index" validate:"required"`
	Stock        uint32  `json:"stock"`
	UnitPrice    string  `json:"unit_price" validate:"required,max=32"`
}

type setListingActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CreateListing reserves product stock into a new active listing.
func CreateListing(svc ListingBoard, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("listing board"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := currency.ParseMinor(payload.UnitPrice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price").
				WithDetails(map[string]any{"unit_price": err.Error()}))
			return
		}

		listing, err := svc.CreateListing(r.Context(), caller, marketplace.ListingInput{
			ProductIndex: *payload.ProductIndex,
			Stock:        payload.Stock,
			UnitPrice:    price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, toListingDTO(currency, listing))
	}
}

// SetListingActive toggles a listing's active flag. Only its seller may.
func SetListingActive(svc ListingBoard, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("listing board"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		index, err := validators.ParseIndexParam(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setListingActiveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.SetListingActive(r.Context(), caller, index, *payload.Active)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toListingDTO(currency, listing))
	}
}

func GetListing(svc ListingBoard, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("listing board"))
			return
		}
		index, err := validators.ParseIndexParam(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.GetListing(r.Context(), index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toListingDTO(currency, listing))
	}
}

func ListListings(svc ListingBoard, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("listing board"))
			return
		}
		listings, err := svc.ListListings(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(listings, func(l marketplace.Listing) ListingDTO {
			return toListingDTO(currency, l)
		}))
	}
}
