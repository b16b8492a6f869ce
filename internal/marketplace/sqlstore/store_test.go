package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	dbpkg "github.com/angelmondragon/marketplace-ledger/pkg/db"
	"github.com/angelmondragon/marketplace-ledger/pkg/db/models"
	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-ledger/pkg/errors"
	"github.com/angelmondragon/marketplace-ledger/pkg/outbox"
)

type harness struct {
	ctx    context.Context
	conn   *gorm.DB
	ledger *marketplace.Ledger
	store  *Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(models.All()...))

	store, err := New(dbpkg.NewFromConn(conn), outbox.NewService(outbox.NewRepository(conn), nil))
	require.NoError(t, err)
	ledger, err := marketplace.NewLedger(store)
	require.NoError(t, err)
	return &harness{ctx: context.Background(), conn: conn, ledger: ledger, store: store}
}

func (h *harness) user(t *testing.T, name string, roles ...enums.Role) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := h.ledger.RegisterUser(h.ctx, id, name, name+"@example.com")
	require.NoError(t, err)
	for _, role := range roles {
		_, err := h.ledger.GrantRole(h.ctx, id, role)
		require.NoError(t, err)
	}
	return id
}

func (h *harness) market(t *testing.T) (uuid.UUID, uuid.UUID) {
	t.Helper()
	seller := h.user(t, "seller", enums.RoleSeller)
	buyer := h.user(t, "buyer", enums.RoleBuyer)
	_, err := h.ledger.RegisterCategory(h.ctx, seller, "Libros")
	require.NoError(t, err)
	_, err = h.ledger.CreateProduct(h.ctx, seller, marketplace.ProductInput{Name: "Rust Book", Category: "Libros", Stock: 10})
	require.NoError(t, err)
	_, err = h.ledger.CreateListing(h.ctx, seller, marketplace.ListingInput{ProductIndex: 0, Stock: 5, UnitPrice: 100})
	require.NoError(t, err)
	return seller, buyer
}

func (h *harness) outboxTypes(t *testing.T) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, h.conn.Order("created_at ASC").Find(&rows).Error)
	out := make([]enums.OutboxEventType, len(rows))
	for i, row := range rows {
		out[i] = row.EventType
	}
	return out
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestUsersRoundTrip(t *testing.T) {
	h := newHarness(t)
	alice := h.user(t, "alice", enums.RoleSeller, enums.RoleBuyer)
	bob := h.user(t, "bob")

	got, err := h.ledger.GetUserByContact(h.ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice, got.ID)
	assert.Equal(t, []enums.Role{enums.RoleSeller, enums.RoleBuyer}, got.Roles)

	_, err = h.ledger.RegisterUser(h.ctx, uuid.New(), "mallory", "bob@example.com")
	assert.ErrorIs(t, err, marketplace.ErrContactAlreadyExists)

	users, err := h.ledger.ListUsers(h.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice, users[0].ID)
	assert.Equal(t, bob, users[1].ID)
	assert.Empty(t, users[1].Roles)
}

func TestOrderLifecyclePersists(t *testing.T) {
	h := newHarness(t)
	seller, buyer := h.market(t)

	order, err := h.ledger.CreateOrder(h.ctx, buyer, marketplace.OrderInput{ListingIndex: 0, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(200), order.Total)

	listing, err := h.ledger.GetListing(h.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), listing.Stock)

	product, err := h.ledger.GetProduct(h.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), product.Stock)

	_, err = h.ledger.ShipOrder(h.ctx, seller, 0)
	require.NoError(t, err)
	received, err := h.ledger.ReceiveOrder(h.ctx, buyer, 0)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReceived, received.Status)

	_, err = h.ledger.CancelOrder(h.ctx, buyer, 0, marketplace.CancelConsent{Buyer: true, Seller: true})
	assert.ErrorIs(t, err, marketplace.ErrOrderNotCancellable)

	var row models.Order
	require.NoError(t, h.conn.Where("idx = ?", 0).Take(&row).Error)
	assert.Equal(t, enums.OrderStatusReceived, row.Status)
	assert.Nil(t, row.BuyerRating)
}

func TestFailedWriteLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	_, buyer := h.market(t)
	before := h.outboxTypes(t)

	_, err := h.ledger.CreateOrder(h.ctx, buyer, marketplace.OrderInput{ListingIndex: 0, Quantity: 6})
	assert.ErrorIs(t, err, marketplace.ErrInsufficientStock)

	listing, err := h.ledger.GetListing(h.ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), listing.Stock)
	assert.Equal(t, before, h.outboxTypes(t))

	var orders int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestRollbackDiscardsPartialWrites(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("boom")

	err := h.store.RunInTransaction(h.ctx, func(tx marketplace.Tx) error {
		if err := tx.Categories().Append(marketplace.Category{Index: 0, Name: "ropa"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	categories, err := h.ledger.ListCategories(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestEventsWrittenToOutbox(t *testing.T) {
	h := newHarness(t)
	_, buyer := h.market(t)
	_, err := h.ledger.CreateOrder(h.ctx, buyer, marketplace.OrderInput{ListingIndex: 0, Quantity: 1})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, h.conn.Where("event_type = ?", enums.EventOrderCreated).Take(&row).Error)
	assert.Equal(t, enums.AggregateOrder, row.AggregateType)
	assert.Equal(t, "0", row.AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, buyer, envelope.Actor.CallerID)

	var data marketplace.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, uint64(100), data.Total)
	assert.Equal(t, uint32(4), data.ListingStockAfter)
}

func TestViewRejectsWrites(t *testing.T) {
	h := newHarness(t)
	err := h.store.View(h.ctx, func(tx marketplace.Tx) error {
		return tx.Categories().Append(marketplace.Category{Index: 0, Name: "ropa"})
	})
	require.Error(t, err)
}

func TestUniqueViolationBecomesConflict(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.conn.Create(&models.Category{Idx: 0, Name: "ropa"}).Error)

	err := h.store.RunInTransaction(h.ctx, func(tx marketplace.Tx) error {
		return tx.Categories().Append(marketplace.Category{Index: 1, Name: "ropa"})
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

// recordLocks captures, per table, whether each query carried a row lock.
func (h *harness) recordLocks(t *testing.T) *[]string {
	t.Helper()
	var reads []string
	name := "test:record_locks_" + uuid.NewString()
	err := h.conn.Callback().Query().Before("gorm:query").Register(name, func(db *gorm.DB) {
		_, locked := db.Statement.Clauses["FOR"]
		reads = append(reads, fmt.Sprintf("%s locked=%v", db.Statement.Table, locked))
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.conn.Callback().Query().Remove(name) })
	return &reads
}

func TestWriteTransactionsLockRowsTheyRead(t *testing.T) {
	h := newHarness(t)
	_, buyer := h.market(t)
	reads := h.recordLocks(t)

	order, err := h.ledger.CreateOrder(h.ctx, buyer, marketplace.OrderInput{ListingIndex: 0, Quantity: 3})
	require.NoError(t, err)
	require.NotEmpty(t, *reads)
	assert.Contains(t, *reads, "listings locked=true")
	assert.Contains(t, *reads, "users locked=true")

	*reads = (*reads)[:0]
	_, err = h.ledger.CancelOrder(h.ctx, buyer, order.Index, marketplace.CancelConsent{Buyer: true, Seller: true})
	require.NoError(t, err)
	assert.Contains(t, *reads, "orders locked=true")
}

func TestViewReadsTakeNoLocks(t *testing.T) {
	h := newHarness(t)
	h.market(t)
	reads := h.recordLocks(t)

	_, err := h.ledger.GetListing(h.ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, *reads)
	for _, read := range *reads {
		assert.Contains(t, read, "locked=false")
	}
}

func TestLockContentionBecomesConflict(t *testing.T) {
	err := translate(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translate(plain))
}
