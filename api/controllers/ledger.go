package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/api/middleware"
	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-ledger/pkg/errors"
)

// UserDirectory is the user surface of the ledger.
type UserDirectory interface {
	RegisterUser(ctx context.Context, caller marketplace.Identity, name, contact string) (marketplace.User, error)
	GetUser(ctx context.Context, id marketplace.Identity) (marketplace.User, error)
	GetUserByContact(ctx context.Context, contact string) (marketplace.User, error)
	GrantRole(ctx context.Context, caller marketplace.Identity, role enums.Role) (marketplace.User, error)
	ListUsers(ctx context.Context) ([]marketplace.User, error)
}

// CategoryRegistry is the category surface of the ledger.
type CategoryRegistry interface {
	RegisterCategory(ctx context.Context, caller marketplace.Identity, name string) (marketplace.Category, error)
	FindCategory(ctx context.Context, name string) (uint32, error)
	GetCategory(ctx context.Context, index uint32) (marketplace.Category, error)
	ListCategories(ctx context.Context) ([]marketplace.Category, error)
}

// ProductCatalog is the product surface of the ledger.
type ProductCatalog interface {
	CreateProduct(ctx context.Context, seller marketplace.Identity, input marketplace.ProductInput) (marketplace.Product, error)
	GetProduct(ctx context.Context, index uint32) (marketplace.Product, error)
	ListProducts(ctx context.Context) ([]marketplace.Product, error)
}

// ListingBoard is the listing surface of the ledger.
type ListingBoard interface {
	CreateListing(ctx context.Context, seller marketplace.Identity, input marketplace.ListingInput) (marketplace.Listing, error)
	SetListingActive(ctx context.Context, caller marketplace.Identity, index uint32, active bool) (marketplace.Listing, error)
	GetListing(ctx context.Context, index uint32) (marketplace.Listing, error)
	ListListings(ctx context.Context) ([]marketplace.Listing, error)
}

// OrderBook is the order surface of the ledger.
type OrderBook interface {
	CreateOrder(ctx context.Context, buyer marketplace.Identity, input marketplace.OrderInput) (marketplace.Order, error)
	ShipOrder(ctx context.Context, caller marketplace.Identity, index uint32) (marketplace.Order, error)
	ReceiveOrder(ctx context.Context, caller marketplace.Identity, index uint32) (marketplace.Order, error)
	CancelOrder(ctx context.Context, caller marketplace.Identity, index uint32, consent marketplace.CancelConsent) (marketplace.Order, error)
	GetOrder(ctx context.Context, index uint32) (marketplace.Order, error)
	ListOrders(ctx context.Context) ([]marketplace.Order, error)
}

func callerFrom(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.CallerIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller context missing")
	}
	return id, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
