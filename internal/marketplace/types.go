package marketplace

import (
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// Identity is the opaque caller principal supplied with every call.
type Identity = uuid.UUID

// User is a registered marketplace participant.
type User struct {
	ID      Identity
	Name    string
	Contact string
	Roles   []enums.Role
}

// HasRole reports whether the user holds role.
func (u User) HasRole(role enums.Role) bool {
	return slices.Contains(u.Roles, role)
}

func (u User) clone() User {
	u.Roles = slices.Clone(u.Roles)
	if u.Roles == nil {
		u.Roles = []enums.Role{}
	}
	return u
}

// HasRole is the predicate form of User.HasRole.
func HasRole(u User, role enums.Role) bool {
	return u.HasRole(role)
}

// Category groups products under a normalized name.
type Category struct {
	Index uint32
	Name  string
}

// Product is seller-owned stock that listings draw from.
type Product struct {
	Index         uint32
	Seller        Identity
	Name          string
	Description   string
	CategoryIndex uint32
	Stock         uint32
}

// Listing offers a slice of a product's stock at a fixed unit price.
type Listing struct {
	Index        uint32
	ProductIndex uint32
	Seller       Identity
	Stock        uint32
	UnitPrice    uint64
	Active       bool
}

// Order is a buyer's purchase against a listing.
type Order struct {
	Index        uint32
	ListingIndex uint32
	Seller       Identity
	Buyer        Identity
	Quantity     uint32
	Total        uint64
	Status       enums.OrderStatus
	BuyerRating  *uint8
	SellerRating *uint8
}

func (o Order) clone() Order {
	if o.BuyerRating != nil {
		v := *o.BuyerRating
		o.BuyerRating = &v
	}
	if o.SellerRating != nil {
		v := *o.SellerRating
		o.SellerRating = &v
	}
	return o
}

// IsParticipant reports whether id is the buyer or the seller of the order.
func (o Order) IsParticipant(id Identity) bool {
	return o.Buyer == id || o.Seller == id
}
