package marketplace

import (
	"context"
	"errors"
	"time"
)

// Operation names reported to observers and used as log/metric labels.
const (
	OpRegisterUser     = "users.register"
	OpGetUser          = "users.get"
	OpGetUserByContact = "users.get_by_contact"
	OpGrantRole        = "users.grant_role"
	OpListUsers        = "users.list"
	OpRegisterCategory = "categories.register"
	OpFindCategory     = "categories.find"
	OpGetCategory      = "categories.get"
	OpListCategories   = "categories.list"
	OpCreateProduct    = "products.create"
	OpGetProduct       = "products.get"
	OpListProducts     = "products.list"
	OpCreateListing    = "listings.create"
	OpGetListing       = "listings.get"
	OpSetListingActive = "listings.set_active"
	OpListListings     = "listings.list"
	OpCreateOrder      = "orders.create"
	OpShipOrder        = "orders.ship"
	OpReceiveOrder     = "orders.receive"
	OpCancelOrder      = "orders.cancel"
	OpGetOrder         = "orders.get"
	OpListOrders       = "orders.list"
)

// Observer is notified once per ledger operation.
type Observer interface {
	ObserveOperation(operation string, duration time.Duration, err error)
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithObserver reports every operation outcome to o.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		l.observer = o
	}
}

// WithClock overrides the time source stamped on emitted events.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// Ledger is the marketplace state machine. Every exported method runs as one
// store transaction and either commits fully or leaves state untouched.
type Ledger struct {
	store    Store
	observer Observer
	now      func() time.Time
}

// NewLedger builds a ledger on top of store.
func NewLedger(store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("store required")
	}
	l := &Ledger{store: store, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Ledger) write(ctx context.Context, operation string, fn func(tx Tx) error) error {
	start := time.Now()
	err := l.store.RunInTransaction(ctx, fn)
	l.observe(operation, start, err)
	return err
}

func (l *Ledger) read(ctx context.Context, operation string, fn func(tx Tx) error) error {
	start := time.Now()
	err := l.store.View(ctx, fn)
	l.observe(operation, start, err)
	return err
}

func (l *Ledger) observe(operation string, start time.Time, err error) {
	if l.observer == nil {
		return
	}
	l.observer.ObserveOperation(operation, time.Since(start), err)
}
