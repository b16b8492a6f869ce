package marketplace

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
)

var errReadOnlyTx = errors.New("write attempted in read-only transaction")

type memoryState struct {
	users      map[Identity]User
	userOrder  []Identity
	categories []Category
	products   []Product
	listings   []Listing
	orders     []Order
	events     []Event
}

// MemoryStore keeps ledger state in process memory. Transactions are
// serialized; a transaction works on a shallow copy of the committed state and
// copies a collection before its first in-place write, so a failed
// transaction never touches committed data.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{users: make(map[Identity]User)}}
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *s.state
	tx := &memoryTx{state: &snapshot}
	if err := fn(tx); err != nil {
		return err
	}
	snapshot.events = append(snapshot.events, tx.pending...)
	s.state = &snapshot
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{state: s.state, readOnly: true})
}

// Events returns every committed event in commit order.
func (s *MemoryStore) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.events)
}

type memoryTx struct {
	state    *memoryState
	readOnly bool
	pending  []Event

	usersOwned    bool
	productsOwned bool
	listingsOwned bool
	ordersOwned   bool
}

func (tx *memoryTx) Users() UserTable          { return memoryUsers{tx} }
func (tx *memoryTx) Categories() CategoryTable { return memoryCategories{tx} }
func (tx *memoryTx) Products() ProductTable    { return memoryProducts{tx} }
func (tx *memoryTx) Listings() ListingTable    { return memoryListings{tx} }
func (tx *memoryTx) Orders() OrderTable        { return memoryOrders{tx} }

func (tx *memoryTx) Emit(event Event) error {
	if tx.readOnly {
		return errReadOnlyTx
	}
	tx.pending = append(tx.pending, event)
	return nil
}

// Appends past the committed length never alias committed elements, so only
// in-place replacement needs a private copy.
func (tx *memoryTx) ownUsers() {
	if !tx.usersOwned {
		tx.state.users = maps.Clone(tx.state.users)
		tx.usersOwned = true
	}
}

func (tx *memoryTx) ownProducts() {
	if !tx.productsOwned {
		tx.state.products = slices.Clone(tx.state.products)
		tx.productsOwned = true
	}
}

func (tx *memoryTx) ownListings() {
	if !tx.listingsOwned {
		tx.state.listings = slices.Clone(tx.state.listings)
		tx.listingsOwned = true
	}
}

func (tx *memoryTx) ownOrders() {
	if !tx.ordersOwned {
		tx.state.orders = slices.Clone(tx.state.orders)
		tx.ordersOwned = true
	}
}

type memoryUsers struct{ tx *memoryTx }

func (t memoryUsers) Get(id Identity) (User, bool, error) {
	user, ok := t.tx.state.users[id]
	if !ok {
		return User{}, false, nil
	}
	return user.clone(), true, nil
}

func (t memoryUsers) ByContact(contact string) (User, bool, error) {
	for _, id := range t.tx.state.userOrder {
		if user := t.tx.state.users[id]; user.Contact == contact {
			return user.clone(), true, nil
		}
	}
	return User{}, false, nil
}

func (t memoryUsers) Insert(user User) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	if _, exists := t.tx.state.users[user.ID]; exists {
		return ErrUserAlreadyExists
	}
	t.tx.ownUsers()
	t.tx.state.users[user.ID] = user.clone()
	t.tx.state.userOrder = append(t.tx.state.userOrder, user.ID)
	return nil
}

func (t memoryUsers) Put(user User) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	if _, exists := t.tx.state.users[user.ID]; !exists {
		return ErrUserNotFound
	}
	t.tx.ownUsers()
	t.tx.state.users[user.ID] = user.clone()
	return nil
}

func (t memoryUsers) All() ([]User, error) {
	out := make([]User, 0, len(t.tx.state.userOrder))
	for _, id := range t.tx.state.userOrder {
		out = append(out, t.tx.state.users[id].clone())
	}
	return out, nil
}

type memoryCategories struct{ tx *memoryTx }

func (t memoryCategories) Get(index uint32) (Category, bool, error) {
	if uint64(index) >= uint64(len(t.tx.state.categories)) {
		return Category{}, false, nil
	}
	return t.tx.state.categories[index], true, nil
}

func (t memoryCategories) ByName(name string) (Category, bool, error) {
	for _, category := range t.tx.state.categories {
		if category.Name == name {
			return category, true, nil
		}
	}
	return Category{}, false, nil
}

func (t memoryCategories) Len() (uint64, error) {
	return uint64(len(t.tx.state.categories)), nil
}

func (t memoryCategories) Append(category Category) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	t.tx.state.categories = append(t.tx.state.categories, category)
	return nil
}

func (t memoryCategories) All() ([]Category, error) {
	return slices.Clone(t.tx.state.categories), nil
}

type memoryProducts struct{ tx *memoryTx }

func (t memoryProducts) Get(index uint32) (Product, bool, error) {
	if uint64(index) >= uint64(len(t.tx.state.products)) {
		return Product{}, false, nil
	}
	return t.tx.state.products[index], true, nil
}

func (t memoryProducts) ByNameCategory(name string, categoryIndex uint32) (Product, bool, error) {
	for _, product := range t.tx.state.products {
		if product.Name == name && product.CategoryIndex == categoryIndex {
			return product, true, nil
		}
	}
	return Product{}, false, nil
}

func (t memoryProducts) Len() (uint64, error) {
	return uint64(len(t.tx.state.products)), nil
}

func (t memoryProducts) Append(product Product) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	t.tx.state.products = append(t.tx.state.products, product)
	return nil
}

func (t memoryProducts) Put(product Product) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	if uint64(product.Index) >= uint64(len(t.tx.state.products)) {
		return ErrProductNotFound
	}
	t.tx.ownProducts()
	t.tx.state.products[product.Index] = product
	return nil
}

func (t memoryProducts) All() ([]Product, error) {
	return slices.Clone(t.tx.state.products), nil
}

type memoryListings struct{ tx *memoryTx }

func (t memoryListings) Get(index uint32) (Listing, bool, error) {
	if uint64(index) >= uint64(len(t.tx.state.listings)) {
		return Listing{}, false, nil
	}
	return t.tx.state.listings[index], true, nil
}

func (t memoryListings) Len() (uint64, error) {
	return uint64(len(t.tx.state.listings)), nil
}

func (t memoryListings) Append(listing Listing) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	t.tx.state.listings = append(t.tx.state.listings, listing)
	return nil
}

func (t memoryListings) Put(listing Listing) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	if uint64(listing.Index) >= uint64(len(t.tx.state.listings)) {
		return ErrListingNotFound
	}
	t.tx.ownListings()
	t.tx.state.listings[listing.Index] = listing
	return nil
}

func (t memoryListings) All() ([]Listing, error) {
	return slices.Clone(t.tx.state.listings), nil
}

type memoryOrders struct{ tx *memoryTx }

func (t memoryOrders) Get(index uint32) (Order, bool, error) {
	if uint64(index) >= uint64(len(t.tx.state.orders)) {
		return Order{}, false, nil
	}
	return t.tx.state.orders[index].clone(), true, nil
}

func (t memoryOrders) Len() (uint64, error) {
	return uint64(len(t.tx.state.orders)), nil
}

func (t memoryOrders) Append(order Order) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	t.tx.state.orders = append(t.tx.state.orders, order.clone())
	return nil
}

func (t memoryOrders) Put(order Order) error {
	if t.tx.readOnly {
		return errReadOnlyTx
	}
	if uint64(order.Index) >= uint64(len(t.tx.state.orders)) {
		return ErrOrderNotFound
	}
	t.tx.ownOrders()
	t.tx.state.orders[order.Index] = order.clone()
	return nil
}

func (t memoryOrders) All() ([]Order, error) {
	out := make([]Order, len(t.tx.state.orders))
	for i, order := range t.tx.state.orders {
		out[i] = order.clone()
	}
	return out, nil
}
