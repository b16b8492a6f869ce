package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/marketplace-ledger/api/responses"
	"github.com/angelmondragon/marketplace-ledger/api/validators"
	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/logger"
	"github.com/angelmondragon/marketplace-ledger/pkg/money"
)

type createOrderRequest struct {
	ListingIndex *uint32 `json:"listing_index" validate:"required"`
	Quantity     uint32  `json:"quantity"`
}

// Both parties' consent travels in one request.
type cancelOrderRequest struct {
	BuyerConsent  bool `json:"buyer_consent"`
	SellerConsent bool `json:"seller_consent"`
}

// CreateOrder places a pending order for the calling buyer.
func CreateOrder(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order book"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateOrder(r.Context(), caller, marketplace.OrderInput{
			ListingIndex: *payload.ListingIndex,
			Quantity:     payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, toOrderDTO(currency, order))
	}
}

type orderTransition func(ctx context.Context, caller marketplace.Identity, index uint32) (marketplace.Order, error)

func transitionOrder(name string, svc OrderBook, pick func(OrderBook) orderTransition, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order book"))
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

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"order_index": index, "transition": name})
		}
		order, err := pick(svc)(ctx, caller, index)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderDTO(currency, order))
	}
}

// ShipOrder moves a pending order to shipped.
func ShipOrder(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder("ship", svc, func(b OrderBook) orderTransition { return b.ShipOrder }, currency, logg)
}

// ReceiveOrder moves a shipped order to received.
func ReceiveOrder(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return transitionOrder("receive", svc, func(b OrderBook) orderTransition { return b.ReceiveOrder }, currency, logg)
}

func CancelOrder(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order book"))
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

		var payload cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), caller, index, marketplace.CancelConsent{
			Buyer:  payload.BuyerConsent,
			Seller: payload.SellerConsent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderDTO(currency, order))
	}
}

func GetOrder(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order book"))
			return
		}
		index, err := validators.ParseIndexParam(r, "index")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderDTO(currency, order))
	}
}

func ListOrders(svc OrderBook, currency money.Formatter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("order book"))
			return
		}
		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(orders, func(o marketplace.Order) OrderDTO {
			return toOrderDTO(currency, o)
		}))
	}
}
