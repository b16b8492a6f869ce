package marketplace

import (
	"context"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// ProductInput describes a new catalog entry.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Stock       uint32
}

// CreateProduct adds a seller-owned product under an existing category.
// Products are unique by name within a category.
func (l *Ledger) CreateProduct(ctx context.Context, seller Identity, input ProductInput) (Product, error) {
	var created Product
	err := l.write(ctx, OpCreateProduct, func(tx Tx) error {
		if _, err := requireRole(tx, seller, enums.RoleSeller); err != nil {
			return err
		}
		category, err := resolveCategory(tx, input.Category)
		if err != nil {
			return err
		}
		products := tx.Products()
		if _, ok, err := products.ByNameCategory(input.Name, category.Index); err != nil {
			return err
		} else if ok {
			return ErrProductAlreadyExists
		}
		length, err := products.Len()
		if err != nil {
			return err
		}
		index, err := nextIndex(length)
		if err != nil {
			return err
		}

		created = Product{
			Index:         index,
			Seller:        seller,
			Name:          input.Name,
			Description:   input.Description,
			CategoryIndex: category.Index,
			Stock:         input.Stock,
		}
		if err := products.Append(created); err != nil {
			return err
		}
		return tx.Emit(l.event(enums.EventProductCreated, enums.AggregateProduct, indexID(index), seller, ProductCreatedEvent{
			Index:         index,
			Seller:        seller,
			Name:          input.Name,
			CategoryIndex: category.Index,
			Stock:         input.Stock,
		}))
	})
	if err != nil {
		return Product{}, err
	}
	return created, nil
}

func (l *Ledger) GetProduct(ctx context.Context, index uint32) (Product, error) {
	var found Product
	err := l.read(ctx, OpGetProduct, func(tx Tx) error {
		product, err := loadProduct(tx, index)
		found = product
		return err
	})
	if err != nil {
		return Product{}, err
	}
	return found, nil
}

func (l *Ledger) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	err := l.read(ctx, OpListProducts, func(tx Tx) error {
		all, err := tx.Products().All()
		products = all
		return err
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func loadProduct(tx Tx, index uint32) (Product, error) {
	product, ok, err := tx.Products().Get(index)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return product, nil
}

// decrementProductStock withdraws amount from a product and writes it back.
func decrementProductStock(tx Tx, index uint32, amount uint32) (Product, error) {
	product, err := loadProduct(tx, index)
	if err != nil {
		return Product{}, err
	}
	remaining, err := CheckedDecrement(product.Stock, amount)
	if err != nil {
		return Product{}, err
	}
	product.Stock = remaining
	if err := tx.Products().Put(product); err != nil {
		return Product{}, err
	}
	return product, nil
}
