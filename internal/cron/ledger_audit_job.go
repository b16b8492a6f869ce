package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	"github.com/angelmondragon/marketplace-ledger/pkg/logger"
)

type ledgerReader interface {
	ListUsers(ctx context.Context) ([]marketplace.User, error)
	ListCategories(ctx context.Context) ([]marketplace.Category, error)
	ListProducts(ctx context.Context) ([]marketplace.Product, error)
	ListListings(ctx context.Context) ([]marketplace.Listing, error)
	ListOrders(ctx context.Context) ([]marketplace.Order, error)
}

// NewLedgerAuditJob re-checks the cross-record ledger invariants against
// persisted state: dense indexes, references that resolve, sellers that
// match their listing, and totals that match quantity times unit price.
func NewLedgerAuditJob(logg *logger.Logger, ledger ledgerReader) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	return &ledgerAuditJob{logg: logg, ledger: ledger}, nil
}

type ledgerAuditJob struct {
	logg   *logger.Logger
	ledger ledgerReader
}

func (j *ledgerAuditJob) Name() string { return "ledger-audit" }

func (j *ledgerAuditJob) Run(ctx context.Context) error {
	snap, err := j.snapshot(ctx)
	if err != nil {
		return fmt.Errorf("ledger audit: %w", err)
	}
	violations := audit(snap)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"users":      len(snap.users),
		"categories": len(snap.categories),
		"products":   len(snap.products),
		"listings":   len(snap.listings),
		"orders":     len(snap.orders),
		"violations": len(multierr.Errors(violations)),
	}), "ledger audit complete")
	return violations
}

type ledgerSnapshot struct {
	users      []marketplace.User
	categories []marketplace.Category
	products   []marketplace.Product
	listings   []marketplace.Listing
	orders     []marketplace.Order
}

func (j *ledgerAuditJob) snapshot(ctx context.Context) (ledgerSnapshot, error) {
	var snap ledgerSnapshot
	var err error
	if snap.users, err = j.ledger.ListUsers(ctx); err != nil {
		return snap, err
	}
	if snap.categories, err = j.ledger.ListCategories(ctx); err != nil {
		return snap, err
	}
	if snap.products, err = j.ledger.ListProducts(ctx); err != nil {
		return snap, err
	}
	if snap.listings, err = j.ledger.ListListings(ctx); err != nil {
		return snap, err
	}
	snap.orders, err = j.ledger.ListOrders(ctx)
	return snap, err
}

func audit(snap ledgerSnapshot) error {
	var errs error
	violation := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	sellers := map[marketplace.Identity]bool{}
	buyers := map[marketplace.Identity]bool{}
	for _, u := range snap.users {
		sellers[u.ID] = u.HasRole(enums.RoleSeller)
		buyers[u.ID] = u.HasRole(enums.RoleBuyer)
	}

	for i, c := range snap.categories {
		if c.Index != uint32(i) {
			violation("category at position %d has index %d", i, c.Index)
		}
		if c.Name != marketplace.NormalizeName(c.Name) || c.Name == "" {
			violation("category %d name %q is not normalized", c.Index, c.Name)
		}
	}

	for i, p := range snap.products {
		if p.Index != uint32(i) {
			violation("product at position %d has index %d", i, p.Index)
		}
		if int(p.CategoryIndex) >= len(snap.categories) {
			violation("product %d references missing category %d", p.Index, p.CategoryIndex)
		}
		if !sellers[p.Seller] {
			violation("product %d seller %s does not hold the seller role", p.Index, p.Seller)
		}
	}

	for i, l := range snap.listings {
		if l.Index != uint32(i) {
			violation("listing at position %d has index %d", i, l.Index)
		}
		if int(l.ProductIndex) >= len(snap.products) {
			violation("listing %d references missing product %d", l.Index, l.ProductIndex)
		}
		if !sellers[l.Seller] {
			violation("listing %d seller %s does not hold the seller role", l.Index, l.Seller)
		}
	}

	for i, o := range snap.orders {
		if o.Index != uint32(i) {
			violation("order at position %d has index %d", i, o.Index)
		}
		if o.Quantity == 0 {
			violation("order %d has zero quantity", o.Index)
		}
		if !o.Status.IsValid() {
			violation("order %d has unknown status %q", o.Index, o.Status)
		}
		if !buyers[o.Buyer] {
			violation("order %d buyer %s does not hold the buyer role", o.Index, o.Buyer)
		}
		if int(o.ListingIndex) >= len(snap.listings) {
			violation("order %d references missing listing %d", o.Index, o.ListingIndex)
			continue
		}
		listing := snap.listings[o.ListingIndex]
		if o.Seller != listing.Seller {
			violation("order %d seller %s differs from listing seller %s", o.Index, o.Seller, listing.Seller)
		}
		total, err := marketplace.CheckedMul(listing.UnitPrice, o.Quantity)
		if err != nil || total != o.Total {
			violation("order %d total %d does not equal %d x %d", o.Index, o.Total, o.Quantity, listing.UnitPrice)
		}
	}
	return errs
}
