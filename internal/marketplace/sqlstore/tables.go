package sqlstore

import (
	"gorm.io/gorm"

	"github.com/angelmondragon/marketplace-ledger/internal/marketplace"
	"github.com/angelmondragon/marketplace-ledger/pkg/db/models"
	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
	"github.com/angelmondragon/marketplace-ledger/pkg/types"
)

type userTable struct{ tx *sqlTx }

func (t userTable) Get(id marketplace.Identity) (marketplace.User, bool, error) {
	var row models.User
	ok, err := first(t.tx.forUpdate(t.tx.db.Where("id = ?", id)), &row)
	if !ok || err != nil {
		return marketplace.User{}, false, err
	}
	return userFromModel(row), true, nil
}

func (t userTable) ByContact(contact string) (marketplace.User, bool, error) {
	var row models.User
	ok, err := first(t.tx.db.Where("contact = ?", contact).Order("seq ASC"), &row)
	if !ok || err != nil {
		return marketplace.User{}, false, err
	}
	return userFromModel(row), true, nil
}

func (t userTable) Insert(user marketplace.User) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	seq, err := count(t.tx.db, &models.User{})
	if err != nil {
		return err
	}
	row := models.User{
		ID:      user.ID,
		Seq:     int64(seq),
		Name:    user.Name,
		Contact: user.Contact,
		Roles:   types.RoleList(user.Roles),
	}
	return t.tx.db.Create(&row).Error
}

func (t userTable) Put(user marketplace.User) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	res := t.tx.db.Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":    user.Name,
			"contact": user.Contact,
			"roles":   types.RoleList(user.Roles),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return marketplace.ErrUserNotFound
	}
	return nil
}

func (t userTable) All() ([]marketplace.User, error) {
	var rows []models.User
	if err := t.tx.db.Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]marketplace.User, len(rows))
	for i, row := range rows {
		out[i] = userFromModel(row)
	}
	return out, nil
}

type categoryTable struct{ tx *sqlTx }

func (t categoryTable) Get(index uint32) (marketplace.Category, bool, error) {
	var row models.Category
	ok, err := first(t.tx.db.Where("idx = ?", index), &row)
	if !ok || err != nil {
		return marketplace.Category{}, false, err
	}
	return marketplace.Category{Index: row.Idx, Name: row.Name}, true, nil
}

func (t categoryTable) ByName(name string) (marketplace.Category, bool, error) {
	var row models.Category
	ok, err := first(t.tx.db.Where("name = ?", name), &row)
	if !ok || err != nil {
		return marketplace.Category{}, false, err
	}
	return marketplace.Category{Index: row.Idx, Name: row.Name}, true, nil
}

func (t categoryTable) Len() (uint64, error) {
	return count(t.tx.db, &models.Category{})
}

func (t categoryTable) Append(category marketplace.Category) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	return t.tx.db.Create(&models.Category{Idx: category.Index, Name: category.Name}).Error
}

func (t categoryTable) All() ([]marketplace.Category, error) {
	var rows []models.Category
	if err := t.tx.db.Order("idx ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]marketplace.Category, len(rows))
	for i, row := range rows {
		out[i] = marketplace.Category{Index: row.Idx, Name: row.Name}
	}
	return out, nil
}

type productTable struct{ tx *sqlTx }

func (t productTable) Get(index uint32) (marketplace.Product, bool, error) {
	var row models.Product
	ok, err := first(t.tx.forUpdate(t.tx.db.Where("idx = ?", index)), &row)
	if !ok || err != nil {
		return marketplace.Product{}, false, err
	}
	return productFromModel(row), true, nil
}

func (t productTable) ByNameCategory(name string, categoryIndex uint32) (marketplace.Product, bool, error) {
	var row models.Product
	ok, err := first(t.tx.db.Where("name = ? AND category_idx = ?", name, categoryIndex), &row)
	if !ok || err != nil {
		return marketplace.Product{}, false, err
	}
	return productFromModel(row), true, nil
}

func (t productTable) Len() (uint64, error) {
	return count(t.tx.db, &models.Product{})
}

func (t productTable) Append(product marketplace.Product) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	row := productToModel(product)
	return t.tx.db.Create(&row).Error
}

func (t productTable) Put(product marketplace.Product) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	return updateByIndex(t.tx.db, &models.Product{}, product.Index, map[string]any{
		"seller_id":    product.Seller,
		"name":         product.Name,
		"description":  product.Description,
		"category_idx": product.CategoryIndex,
		"stock":        product.Stock,
	}, marketplace.ErrProductNotFound)
}

func (t productTable) All() ([]marketplace.Product, error) {
	var rows []models.Product
	if err := t.tx.db.Order("idx ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]marketplace.Product, len(rows))
	for i, row := range rows {
		out[i] = productFromModel(row)
	}
	return out, nil
}

type listingTable struct{ tx *sqlTx }

func (t listingTable) Get(index uint32) (marketplace.Listing, bool, error) {
	var row models.Listing
	ok, err := first(t.tx.forUpdate(t.tx.db.Where("idx = ?", index)), &row)
	if !ok || err != nil {
		return marketplace.Listing{}, false, err
	}
	return listingFromModel(row), true, nil
}

func (t listingTable) Len() (uint64, error) {
	return count(t.tx.db, &models.Listing{})
}

func (t listingTable) Append(listing marketplace.Listing) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	row := listingToModel(listing)
	return t.tx.db.Create(&row).Error
}

func (t listingTable) Put(listing marketplace.Listing) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	return updateByIndex(t.tx.db, &models.Listing{}, listing.Index, map[string]any{
		"product_idx": listing.ProductIndex,
		"seller_id":   listing.Seller,
		"stock":       listing.Stock,
		"unit_price":  types.Amount(listing.UnitPrice),
		"active":      listing.Active,
	}, marketplace.ErrListingNotFound)
}

func (t listingTable) All() ([]marketplace.Listing, error) {
	var rows []models.Listing
	if err := t.tx.db.Order("idx ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]marketplace.Listing, len(rows))
	for i, row := range rows {
		out[i] = listingFromModel(row)
	}
	return out, nil
}

type orderTable struct{ tx *sqlTx }

func (t orderTable) Get(index uint32) (marketplace.Order, bool, error) {
	var row models.Order
	ok, err := first(t.tx.forUpdate(t.tx.db.Where("idx = ?", index)), &row)
	if !ok || err != nil {
		return marketplace.Order{}, false, err
	}
	return orderFromModel(row), true, nil
}

func (t orderTable) Len() (uint64, error) {
	return count(t.tx.db, &models.Order{})
}

func (t orderTable) Append(order marketplace.Order) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	row := orderToModel(order)
	return t.tx.db.Create(&row).Error
}

func (t orderTable) Put(order marketplace.Order) error {
	if err := t.tx.writable(); err != nil {
		return err
	}
	return updateByIndex(t.tx.db, &models.Order{}, order.Index, map[string]any{
		"status":        order.Status,
		"buyer_rating":  order.BuyerRating,
		"seller_rating": order.SellerRating,
	}, marketplace.ErrOrderNotFound)
}

func (t orderTable) All() ([]marketplace.Order, error) {
	var rows []models.Order
	if err := t.tx.db.Order("idx ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]marketplace.Order, len(rows))
	for i, row := range rows {
		out[i] = orderFromModel(row)
	}
	return out, nil
}

func updateByIndex(db *gorm.DB, model any, index uint32, values map[string]any, missing error) error {
	res := db.Model(model).Where("idx = ?", index).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing
	}
	return nil
}

func userFromModel(row models.User) marketplace.User {
	roles := make([]enums.Role, len(row.Roles))
	copy(roles, row.Roles)
	return marketplace.User{ID: row.ID, Name: row.Name, Contact: row.Contact, Roles: roles}
}

func productFromModel(row models.Product) marketplace.Product {
	return marketplace.Product{
		Index:         row.Idx,
		Seller:        row.SellerID,
		Name:          row.Name,
		Description:   row.Description,
		CategoryIndex: row.CategoryIdx,
		Stock:         row.Stock,
	}
}

func productToModel(p marketplace.Product) models.Product {
	return models.Product{
		Idx:         p.Index,
		SellerID:    p.Seller,
		Name:        p.Name,
		Description: p.Description,
		CategoryIdx: p.CategoryIndex,
		Stock:       p.Stock,
	}
}

func listingFromModel(row models.Listing) marketplace.Listing {
	return marketplace.Listing{
		Index:        row.Idx,
		ProductIndex: row.ProductIdx,
		Seller:       row.SellerID,
		Stock:        row.Stock,
		UnitPrice:    uint64(row.UnitPrice),
		Active:       row.Active,
	}
}

func listingToModel(l marketplace.Listing) models.Listing {
	return models.Listing{
		Idx:        l.Index,
		ProductIdx: l.ProductIndex,
		SellerID:   l.Seller,
		Stock:      l.Stock,
		UnitPrice:  types.Amount(l.UnitPrice),
		Active:     l.Active,
	}
}

func orderFromModel(row models.Order) marketplace.Order {
	return marketplace.Order{
		Index:        row.Idx,
		ListingIndex: row.ListingIdx,
		Seller:       row.SellerID,
		Buyer:        row.BuyerID,
		Quantity:     row.Quantity,
		Total:        uint64(row.Total),
		Status:       row.Status,
		BuyerRating:  row.BuyerRating,
		SellerRating: row.SellerRating,
	}
}

func orderToModel(o marketplace.Order) models.Order {
	return models.Order{
		Idx:          o.Index,
		ListingIdx:   o.ListingIndex,
		SellerID:     o.Seller,
		BuyerID:      o.Buyer,
		Quantity:     o.Quantity,
		Total:        types.Amount(o.Total),
		Status:       o.Status,
		BuyerRating:  o.BuyerRating,
		SellerRating: o.SellerRating,
	}
}
