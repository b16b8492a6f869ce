package controllers

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	"github.com/angelmondragon/marketplace-ledger/pkg/money"
)

type UserDTO struct {
	ID      uuid.UUID    `json:"id"`
	Name    string       `json:"name"`
	Contact string       `json:"contact"`
	Roles   []enums.Role `json:"roles"`
}

func toUserDTO(u marketplace.User) UserDTO {
	roles := u.Roles
	if roles == nil {
		roles = []enums.Role{}
	}
	return UserDTO{ID: u.ID, Name: u.Name, Contact: u.Contact, Roles: roles}
}

type CategoryDTO struct {
	Index uint32 `json:"index"`
	Name  string `json:"name"`
}

func toCategoryDTO(c marketplace.Category) CategoryDTO {
	return CategoryDTO{Index: c.Index, Name: c.Name}
}

type ProductDTO struct {
	Index         uint32    `json:"index"`
	Seller        uuid.UUID `json:"seller"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CategoryIndex uint32    `json:"category_index"`
	Stock         uint32    `json:"stock"`
}

func toProductDTO(p marketplace.Product) ProductDTO {
	return ProductDTO{
		Index:         p.Index,
		Seller:        p.Seller,
		Name:          p.Name,
		Description:   p.Description,
		CategoryIndex: p.CategoryIndex,
		Stock:         p.Stock,
	}
}

type ListingDTO struct {
	Index        uint32       `json:"index"`
	ProductIndex uint32       `json:"product_index"`
	Seller       uuid.UUID    `json:"seller"`
	Stock        uint32       `json:"stock"`
	UnitPrice    money.Amount `json:"unit_price"`
	Active       bool         `json:"active"`
}

func toListingDTO(f money.Formatter, l marketplace.Listing) ListingDTO {
	return ListingDTO{
		Index:        l.Index,
		ProductIndex: l.ProductIndex,
		Seller:       l.Seller,
		Stock:        l.Stock,
		UnitPrice:    f.Amount(l.UnitPrice),
		Active:       l.Active,
	}
}

type OrderDTO struct {
	Index        uint32            `json:"index"`
	ListingIndex uint32            `json:"listing_index"`
	Seller       uuid.UUID         `json:"seller"`
	Buyer        uuid.UUID         `json:"buyer"`
	Quantity     uint32            `json:"quantity"`
	Total        money.Amount      `json:"total"`
	Status       enums.OrderStatus `json:"status"`
	BuyerRating  *uint8            `json:"buyer_rating,omitempty"`
	SellerRating *uint8            `json:"seller_rating,omitempty"`
}

func toOrderDTO(f money.Formatter, o marketplace.Order) OrderDTO {
	return OrderDTO{
		Index:        o.Index,
		ListingIndex: o.ListingIndex,
		Seller:       o.Seller,
		Buyer:        o.Buyer,
		Quantity:     o.Quantity,
		Total:        f.Amount(o.Total),
		Status:       o.Status,
		BuyerRating:  o.BuyerRating,
		SellerRating: o.SellerRating,
	}
}

func mapSlice[T, D any](items []T, fn func(T) D) []D {
	out := make([]D, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
