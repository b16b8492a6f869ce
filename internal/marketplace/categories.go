package marketplace

import (
	"context"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// RegisterCategory stores the normalized form of name under the next index.
// caller is recorded as the event actor only; any principal may register.
func (l *Ledger) RegisterCategory(ctx context.Context, caller Identity, name string) (Category, error) {
	var created Category
	err := l.write(ctx, OpRegisterCategory, func(tx Tx) error {
		normalized := NormalizeName(name)
		if normalized == "" {
			return ErrNameEmpty
		}
		categories := tx.Categories()
		if _, ok, err := categories.ByName(normalized); err != nil {
			return err
		} else if ok {
			return ErrCategoryAlreadyExists
		}
		length, err := categories.Len()
		if err != nil {
			return err
		}
		index, err := nextIndex(length)
		if err != nil {
			return err
		}

		created = Category{Index: index, Name: normalized}
		if err := categories.Append(created); err != nil {
			return err
		}
		return tx.Emit(l.event(enums.EventCategoryRegistered, enums.AggregateCategory, indexID(index), caller, CategoryRegisteredEvent{
			Index: index,
			Name:  normalized,
		}))
	})
	if err != nil {
		return Category{}, err
	}
	return created, nil
}

// FindCategory resolves name, normalized the same way as on registration,
// to its category index.
func (l *Ledger) FindCategory(ctx context.Context, name string) (uint32, error) {
	var index uint32
	err := l.read(ctx, OpFindCategory, func(tx Tx) error {
		category, err := resolveCategory(tx, name)
		index = category.Index
		return err
	})
	if err != nil {
		return 0, err
	}
	return index, nil
}

func (l *Ledger) GetCategory(ctx context.Context, index uint32) (Category, error) {
	var found Category
	err := l.read(ctx, OpGetCategory, func(tx Tx) error {
		category, ok, err := tx.Categories().Get(index)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound
		}
		found = category
		return nil
	})
	return found, err
}

func (l *Ledger) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := l.read(ctx, OpListCategories, func(tx Tx) error {
		all, err := tx.Categories().All()
		categories = all
		return err
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func resolveCategory(tx Tx, name string) (Category, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return Category{}, ErrCategoryNotFound
	}
	category, ok, err := tx.Categories().ByName(normalized)
	if err != nil {
		return Category{}, err
	}
	if !ok {
		return Category{}, ErrCategoryNotFound
	}
	return category, nil
}
