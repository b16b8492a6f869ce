package marketplace

import (
	"context"
	"slices"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// RegisterUser creates the caller's record with an empty role set.
func (l *Ledger) RegisterUser(ctx context.Context, caller Identity, name, contact string) (User, error) {
	var created User
	err := l.write(ctx, OpRegisterUser, func(tx Tx) error {
		users := tx.Users()
		if _, ok, err := users.Get(caller); err != nil {
			return err
		} else if ok {
			return ErrUserAlreadyExists
		}
		if _, ok, err := users.ByContact(contact); err != nil {
			return err
		} else if ok {
			return ErrContactAlreadyExists
		}

		created = User{ID: caller, Name: name, Contact: contact, Roles: []enums.Role{}}
		if err := users.Insert(created); err != nil {
			return err
		}
		return tx.Emit(l.event(enums.EventUserRegistered, enums.AggregateUser, caller.String(), caller, UserRegisteredEvent{
			UserID:  caller,
			Name:    name,
			Contact: contact,
		}))
	})
	if err != nil {
		return User{}, err
	}
	return created.clone(), nil
}

// GetUser returns the user registered under id.
func (l *Ledger) GetUser(ctx context.Context, id Identity) (User, error) {
	var found User
	err := l.read(ctx, OpGetUser, func(tx Tx) error {
		user, err := loadUser(tx, id)
		found = user
		return err
	})
	if err != nil {
		return User{}, err
	}
	return found.clone(), nil
}

// GetUserByContact returns the first user, in registration order, whose
// contact matches exactly.
func (l *Ledger) GetUserByContact(ctx context.Context, contact string) (User, error) {
	var found User
	err := l.read(ctx, OpGetUserByContact, func(tx Tx) error {
		user, ok, err := tx.Users().ByContact(contact)
		if err != nil {
			return err
		}
		if !ok {
			return ErrContactNotFound
		}
		found = user
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return found.clone(), nil
}

// GrantRole adds role to the caller's role set.
func (l *Ledger) GrantRole(ctx context.Context, caller Identity, role enums.Role) (User, error) {
	var updated User
	err := l.write(ctx, OpGrantRole, func(tx Tx) error {
		user, err := loadUser(tx, caller)
		if err != nil {
			return err
		}
		if user.HasRole(role) {
			return ErrRoleAlreadyGranted
		}
		user.Roles = append(slices.Clone(user.Roles), role)
		if err := tx.Users().Put(user); err != nil {
			return err
		}
		updated = user
		return tx.Emit(l.event(enums.EventUserRoleGranted, enums.AggregateUser, caller.String(), caller, RoleGrantedEvent{
			UserID: caller,
			Role:   role,
		}))
	})
	if err != nil {
		return User{}, err
	}
	return updated.clone(), nil
}

// ListUsers returns every user in registration order.
func (l *Ledger) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := l.read(ctx, OpListUsers, func(tx Tx) error {
		all, err := tx.Users().All()
		users = all
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = u.clone()
	}
	return out, nil
}

func loadUser(tx Tx, id Identity) (User, error) {
	user, ok, err := tx.Users().Get(id)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// requireRole loads id and checks it holds role.
func requireRole(tx Tx, id Identity, role enums.Role) (User, error) {
	user, err := loadUser(tx, id)
	if err != nil {
		return User{}, err
	}
	if !user.HasRole(role) {
		return User{}, ErrRoleNotApplicable
	}
	return user, nil
}
