package marketplace

import (
	"testing"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

func TestCreateListingFailuresLeaveProductStock(t *testing.T) {
	f := newFixture(t)
	seller := f.user("seller", enums.RoleSeller)
	buyer := f.user("buyer", enums.RoleBuyer)
	f.category("Libros")
	f.product(seller, "Rust Book", "Libros", 4)

	tests := []struct {
		name   string
		caller Identity
		input  ListingInput
		want   error
	}{
		{"missing role", buyer, ListingInput{ProductIndex: 0, Stock: 1, UnitPrice: 10}, ErrRoleNotApplicable},
		{"unknown product", seller, ListingInput{ProductIndex: 9, Stock: 1, UnitPrice: 10}, ErrProductNotFound},
		{"more than available", seller, ListingInput{ProductIndex: 0, Stock: 5, UnitPrice: 10}, ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateListing(f.ctx, tt.caller, tt.input)
			expectErr(t, err, tt.want)
		})
	}

	product, _ := f.ledger.GetProduct(f.ctx, 0)
	if product.Stock != 4 {
		t.Fatalf("expected untouched stock 4, got %d", product.Stock)
	}
	listings, _ := f.ledger.ListListings(f.ctx)
	if len(listings) != 0 {
		t.Fatalf("expected no listings, got %d", len(listings))
	}
}

func TestCreateListingAnySellerMayListAnyProduct(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner", enums.RoleSeller)
	reseller := f.user("reseller", enums.RoleSeller)
	f.category("Libros")
	f.product(owner, "Rust Book", "Libros", 4)

	listing := f.listing(reseller, 0, 4, 50)
	if listing.Seller != reseller {
		t.Fatalf("listing seller should be the caller")
	}
	product, _ := f.ledger.GetProduct(f.ctx, 0)
	if product.Stock != 0 {
		t.Fatalf("expected product drained, got %d", product.Stock)
	}

	empty := f.listing(owner, 0, 0, 50)
	if empty.Index != 1 || empty.Stock != 0 {
		t.Fatalf("zero-stock listing should be allowed, got %+v", empty)
	}
}

func TestListingAccessors(t *testing.T) {
	f := newFixture(t)
	seller, _ := f.market()

	gotSeller, err := f.ledger.SellerOf(f.ctx, 0)
	if err != nil || gotSeller != seller {
		t.Fatalf("SellerOf returned %s, %v", gotSeller, err)
	}
	price, err := f.ledger.UnitPriceOf(f.ctx, 0)
	if err != nil || price != 100 {
		t.Fatalf("UnitPriceOf returned %d, %v", price, err)
	}

	_, err = f.ledger.SellerOf(f.ctx, 1)
	expectErr(t, err, ErrListingNotFound)
	_, err = f.ledger.UnitPriceOf(f.ctx, 1)
	expectErr(t, err, ErrListingNotFound)
}

func TestSetListingActive(t *testing.T) {
	f := newFixture(t)
	seller, buyer := f.market()

	listing, err := f.ledger.SetListingActive(f.ctx, seller, 0, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if listing.Active {
		t.Fatalf("expected inactive listing")
	}

	_, err = f.ledger.SetListingActive(f.ctx, buyer, 0, true)
	expectErr(t, err, ErrNotListingSeller)

	_, err = f.ledger.SetListingActive(f.ctx, seller, 4, true)
	expectErr(t, err, ErrListingNotFound)

	// The flag is informational: inactive listings still accept orders.
	order := f.order(buyer, 0, 1)
	if order.Total != 100 {
		t.Fatalf("unexpected total %d", order.Total)
	}
}
