package marketplace

import "context"

// Store persists ledger state.
//
// RunInTransaction applies every write made through tx atomically: when fn
// returns an error nothing it wrote, including emitted events, is kept. View
// runs fn against a read-only snapshot; writes through it fail.
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the ledger collections inside one transaction.
type Tx interface {
	Users() UserTable
	Categories() CategoryTable
	Products() ProductTable
	Listings() ListingTable
	Orders() OrderTable
	Emit(event Event) error
}

// UserTable is keyed by identity and remembers registration order.
type UserTable interface {
	Get(id Identity) (User, bool, error)
	ByContact(contact string) (User, bool, error)
	Insert(user User) error
	Put(user User) error
	All() ([]User, error)
}

// CategoryTable is an append-only sequence with a name index.
type CategoryTable interface {
	Get(index uint32) (Category, bool, error)
	ByName(name string) (Category, bool, error)
	Len() (uint64, error)
	Append(category Category) error
	All() ([]Category, error)
}

// ProductTable is an append-only sequence keyed by (name, category).
type ProductTable interface {
	Get(index uint32) (Product, bool, error)
	ByNameCategory(name string, categoryIndex uint32) (Product, bool, error)
	Len() (uint64, error)
	Append(product Product) error
	Put(product Product) error
	All() ([]Product, error)
}

type ListingTable interface {
	Get(index uint32) (Listing, bool, error)
	Len() (uint64, error)
	Append(listing Listing) error
	Put(listing Listing) error
	All() ([]Listing, error)
}

type OrderTable interface {
	Get(index uint32) (Order, bool, error)
	Len() (uint64, error)
	Append(order Order) error
	Put(order Order) error
	All() ([]Order, error)
}
