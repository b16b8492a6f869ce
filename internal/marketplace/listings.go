package marketplace

import (
	"context"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// ListingInput reserves Stock units of a product at UnitPrice minor units each.
type ListingInput struct {
	ProductIndex uint32
	Stock        uint32
	UnitPrice    uint64
}

// CreateListing withdraws input.Stock from the product and publishes an
// active listing holding that many units. Any seller may list any product.
func (l *Ledger) CreateListing(ctx context.Context, seller Identity, input ListingInput) (Listing, error) {
	var created Listing
	err := l.write(ctx, OpCreateListing, func(tx Tx) error {
		if _, err := requireRole(tx, seller, enums.RoleSeller); err != nil {
			return err
		}
		product, err := decrementProductStock(tx, input.ProductIndex, input.Stock)
		if err != nil {
			return err
		}
		listings := tx.Listings()
		length, err := listings.Len()
		if err != nil {
			return err
		}
		index, err := nextIndex(length)
		if err != nil {
			return err
		}

		created = Listing{
			Index:        index,
			ProductIndex: input.ProductIndex,
			Seller:       seller,
			Stock:        input.Stock,
			UnitPrice:    input.UnitPrice,
			Active:       true,
		}
		if err := listings.Append(created); err != nil {
			return err
		}
		return tx.Emit(l.event(enums.EventListingCreated, enums.AggregateListing, indexID(index), seller, ListingCreatedEvent{
			Index:             index,
			ProductIndex:      input.ProductIndex,
			Seller:            seller,
			Stock:             input.Stock,
			UnitPrice:         input.UnitPrice,
			ProductStockAfter: product.Stock,
		}))
	})
	if err != nil {
		return Listing{}, err
	}
	return created, nil
}

// SetListingActive flips the listing's active flag. Only the seller who
// published the listing may change it. The flag does not gate ordering.
func (l *Ledger) SetListingActive(ctx context.Context, caller Identity, index uint32, active bool) (Listing, error) {
	var updated Listing
	err := l.write(ctx, OpSetListingActive, func(tx Tx) error {
		listing, err := loadListing(tx, index)
		if err != nil {
			return err
		}
		if listing.Seller != caller {
			return ErrNotListingSeller
		}
		listing.Active = active
		if err := tx.Listings().Put(listing); err != nil {
			return err
		}
		updated = listing
		return tx.Emit(l.event(enums.EventListingActivationChanged, enums.AggregateListing, indexID(index), caller, ListingActivationEvent{
			Index:  index,
			Active: active,
		}))
	})
	if err != nil {
		return Listing{}, err
	}
	return updated, nil
}

func (l *Ledger) GetListing(ctx context.Context, index uint32) (Listing, error) {
	var found Listing
	err := l.read(ctx, OpGetListing, func(tx Tx) error {
		listing, err := loadListing(tx, index)
		found = listing
		return err
	})
	if err != nil {
		return Listing{}, err
	}
	return found, nil
}

// SellerOf returns the identity that published the listing.
func (l *Ledger) SellerOf(ctx context.Context, index uint32) (Identity, error) {
	listing, err := l.GetListing(ctx, index)
	if err != nil {
		return Identity{}, err
	}
	return listing.Seller, nil
}

// UnitPriceOf returns the listing's price per unit in minor units.
func (l *Ledger) UnitPriceOf(ctx context.Context, index uint32) (uint64, error) {
	listing, err := l.GetListing(ctx, index)
	if err != nil {
		return 0, err
	}
	return listing.UnitPrice, nil
}

func (l *Ledger) ListListings(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	err := l.read(ctx, OpListListings, func(tx Tx) error {
		all, err := tx.Listings().All()
		listings = all
		return err
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func loadListing(tx Tx, index uint32) (Listing, error) {
	listing, ok, err := tx.Listings().Get(index)
	if err != nil {
		return Listing{}, err
	}
	if !ok {
		return Listing{}, ErrListingNotFound
	}
	return listing, nil
}

func decrementListingStock(tx Tx, index uint32, amount uint32) (Listing, error) {
	listing, err := loadListing(tx, index)
	if err != nil {
		return Listing{}, err
	}
	remaining, err := CheckedDecrement(listing.Stock, amount)
	if err != nil {
		return Listing{}, err
	}
	listing.Stock = remaining
	if err := tx.Listings().Put(listing); err != nil {
		return Listing{}, err
	}
	return listing, nil
}
