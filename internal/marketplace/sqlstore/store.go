// Package sqlstore persists the marketplace ledger through GORM. Each ledger
// transaction is one database transaction, and domain events are written to
// the outbox inside it.
package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	dbpkg "github.com/angelmondragon/marketplace-ledger/pkg/db"
	pkgerrors "github.com/angelmondragon/marketplace-ledger/pkg/errors"
	"github.com/angelmondragon/marketplace-ledger/pkg/outbox"
)

var errReadOnly = errors.New("write attempted in read-only transaction")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Store implements marketplace.Store on a SQL database.
type Store struct {
	db     txRunner
	outbox outboxEmitter
}

func New(db txRunner, emitter outboxEmitter) (*Store, error) {
	if db == nil {
		return nil, errors.New("db required")
	}
	if emitter == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &Store{db: db, outbox: emitter}, nil
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(tx marketplace.Tx) error) error {
	err := s.db.WithTx(ctx, func(gtx *gorm.DB) error {
		return fn(&sqlTx{ctx: ctx, db: gtx, outbox: s.outbox})
	})
	return translate(err)
}

func (s *Store) View(ctx context.Context, fn func(tx marketplace.Tx) error) error {
	return translate(fn(&sqlTx{ctx: ctx, db: s.db.DB().WithContext(ctx), readOnly: true}))
}

// translate maps constraint and lock races between concurrent writers onto a
// typed conflict. Ledger errors pass through untouched.
func translate(err error) error {
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	if dbpkg.IsUniqueViolation(err, "") || dbpkg.IsLockContention(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "concurrent ledger write; retry the request")
	}
	return err
}

type sqlTx struct {
	ctx      context.Context
	db       *gorm.DB
	outbox   outboxEmitter
	readOnly bool
}

func (tx *sqlTx) Users() marketplace.UserTable          { return userTable{tx} }
func (tx *sqlTx) Categories() marketplace.CategoryTable { return categoryTable{tx} }
func (tx *sqlTx) Products() marketplace.ProductTable    { return productTable{tx} }
func (tx *sqlTx) Listings() marketplace.ListingTable    { return listingTable{tx} }
func (tx *sqlTx) Orders() marketplace.OrderTable        { return orderTable{tx} }

func (tx *sqlTx) Emit(event marketplace.Event) error {
	if tx.readOnly {
		return errReadOnly
	}
	return tx.outbox.Emit(tx.ctx, tx.db, outbox.DomainEvent{
		EventType:     event.Type,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Actor:         &outbox.Actor{CallerID: event.Actor},
		Data:          event.Data,
		OccurredAt:    event.OccurredAt,
	})
}

// forUpdate row-locks the rows q reads when the transaction may write them
// back, so a concurrent read-check-write on the same record waits instead of
// overwriting. SQLite drops the clause; its single writer already serializes.
func (tx *sqlTx) forUpdate(q *gorm.DB) *gorm.DB {
	if tx.readOnly {
		return q
	}
	return q.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (tx *sqlTx) writable() error {
	if tx.readOnly {
		return errReadOnly
	}
	return nil
}

// first loads one row into dst, reporting absence as ok=false.
func first(q *gorm.DB, dst any) (bool, error) {
	err := q.Take(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func count(db *gorm.DB, model any) (uint64, error) {
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		return 0, err
	}
	return uint64(n), nil
}
