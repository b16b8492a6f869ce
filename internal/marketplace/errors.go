package marketplace

import (
	pkgerrors "github.com/angelmondragon/marketplace-ledger/pkg/errors"
)

// Ledger failures. Match with errors.Is; WithDetails copies keep matching.
var (
	ErrUserNotFound         = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	ErrUserAlreadyExists    = pkgerrors.New(pkgerrors.CodeConflict, "user already exists")
	ErrContactAlreadyExists = pkgerrors.New(pkgerrors.CodeConflict, "contact already registered")
	ErrContactNotFound      = pkgerrors.New(pkgerrors.CodeNotFound, "contact not found")
	ErrRoleAlreadyGranted   = pkgerrors.New(pkgerrors.CodeConflict, "role already granted")
	ErrRoleNotApplicable    = pkgerrors.New(pkgerrors.CodeForbidden, "caller lacks the required role")

	ErrCategoryNotFound      = pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	ErrCategoryAlreadyExists = pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	ErrNameEmpty             = pkgerrors.New(pkgerrors.CodeValidation, "name is empty")

	ErrProductNotFound      = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	ErrProductAlreadyExists = pkgerrors.New(pkgerrors.CodeConflict, "product already exists in category")
	ErrInsufficientStock    = pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock")

	ErrListingNotFound        = pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
	ErrNotListingSeller       = pkgerrors.New(pkgerrors.CodeForbidden, "caller is not the listing seller")
	ErrQuantityMustBePositive = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	ErrMultiplicationOverflow = pkgerrors.New(pkgerrors.CodeInternal, "order total overflows")

	ErrOrderNotFound              = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	ErrOrderNotPending            = pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	ErrOrderNotShipped            = pkgerrors.New(pkgerrors.CodeStateConflict, "order is not shipped")
	ErrOrderAlreadyCancelled      = pkgerrors.New(pkgerrors.CodeStateConflict, "order already cancelled")
	ErrOrderNotCancellable        = pkgerrors.New(pkgerrors.CodeStateConflict, "received orders cannot be cancelled")
	ErrNotOrderParticipant        = pkgerrors.New(pkgerrors.CodeForbidden, "caller is not a party to the order")
	ErrCancellationConsentMissing = pkgerrors.New(pkgerrors.CodeValidation, "cancellation requires buyer and seller consent")
	ErrCapacityExhausted          = pkgerrors.New(pkgerrors.CodeInternal, "index space exhausted")
)
