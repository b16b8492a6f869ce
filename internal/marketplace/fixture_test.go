package marketplace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *MemoryStore
	ledger *Ledger
	seq    int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := NewMemoryStore()
	ledger, err := NewLedger(store, opts...)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return &fixture{t: t, ctx: context.Background(), store: store, ledger: ledger}
}

func (f *fixture) user(name string, roles ...enums.Role) Identity {
	f.t.Helper()
	f.seq++
	id := uuid.New()
	if _, err := f.ledger.RegisterUser(f.ctx, id, name, fmt.Sprintf("%s-%d@example.com", name, f.seq)); err != nil {
		f.t.Fatalf("register %s: %v", name, err)
	}
	for _, role := range roles {
		if _, err := f.ledger.GrantRole(f.ctx, id, role); err != nil {
			f.t.Fatalf("grant %s to %s: %v", role, name, err)
		}
	}
	return id
}

func (f *fixture) category(name string) Category {
	f.t.Helper()
	category, err := f.ledger.RegisterCategory(f.ctx, uuid.New(), name)
	if err != nil {
		f.t.Fatalf("register category %q: %v", name, err)
	}
	return category
}

func (f *fixture) product(seller Identity, name, category string, stock uint32) Product {
	f.t.Helper()
	product, err := f.ledger.CreateProduct(f.ctx, seller, ProductInput{Name: name, Description: "desc", Category: category, Stock: stock})
	if err != nil {
		f.t.Fatalf("create product %q: %v", name, err)
	}
	return product
}

func (f *fixture) listing(seller Identity, product uint32, stock uint32, price uint64) Listing {
	f.t.Helper()
	listing, err := f.ledger.CreateListing(f.ctx, seller, ListingInput{ProductIndex: product, Stock: stock, UnitPrice: price})
	if err != nil {
		f.t.Fatalf("create listing: %v", err)
	}
	return listing
}

func (f *fixture) order(buyer Identity, listing uint32, quantity uint32) Order {
	f.t.Helper()
	order, err := f.ledger.CreateOrder(f.ctx, buyer, OrderInput{ListingIndex: listing, Quantity: quantity})
	if err != nil {
		f.t.Fatalf("create order: %v", err)
	}
	return order
}

// market seeds a seller with a 10-unit product listed 5 at 100, and a buyer.
func (f *fixture) market() (seller, buyer Identity) {
	f.t.Helper()
	seller = f.user("seller", enums.RoleSeller)
	buyer = f.user("buyer", enums.RoleBuyer)
	f.category("Libros")
	f.product(seller, "Rust Book", "Libros", 10)
	f.listing(seller, 0, 5, 100)
	return seller, buyer
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
