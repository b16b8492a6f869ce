package marketplace

import (
	"context"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// OrderInput requests Quantity units from a listing.
type OrderInput struct {
	ListingIndex uint32
	Quantity     uint32
}

// CancelConsent carries both parties' agreement to cancel, signalled in the
// same call.
type CancelConsent struct {
	Buyer  bool
	Seller bool
}

// CreateOrder places a pending order for buyer. The total is fixed at
// creation as unit price times quantity and the listing stock is consumed.
func (l *Ledger) CreateOrder(ctx context.Context, buyer Identity, input OrderInput) (Order, error) {
	var created Order
	err := l.write(ctx, OpCreateOrder, func(tx Tx) error {
		if _, err := requireRole(tx, buyer, enums.RoleBuyer); err != nil {
			return err
		}
		if input.Quantity == 0 {
			return ErrQuantityMustBePositive
		}
		listing, err := loadListing(tx, input.ListingIndex)
		if err != nil {
			return err
		}
		if _, err := requireRole(tx, listing.Seller, enums.RoleSeller); err != nil {
			return err
		}
		total, err := CheckedMul(listing.UnitPrice, input.Quantity)
		if err != nil {
			return err
		}
		listing, err = decrementListingStock(tx, input.ListingIndex, input.Quantity)
		if err != nil {
			return err
		}
		orders := tx.Orders()
		length, err := orders.Len()
		if err != nil {
			return err
		}
		index, err := nextIndex(length)
		if err != nil {
			return err
		}

		created = Order{
			Index:        index,
			ListingIndex: input.ListingIndex,
			Seller:       listing.Seller,
			Buyer:        buyer,
			Quantity:     input.Quantity,
			Total:        total,
			Status:       enums.OrderStatusPending,
		}
		if err := orders.Append(created); err != nil {
			return err
		}
		return tx.Emit(l.event(enums.EventOrderCreated, enums.AggregateOrder, indexID(index), buyer, OrderCreatedEvent{
			Index:             index,
			ListingIndex:      input.ListingIndex,
			Buyer:             buyer,
			Seller:            listing.Seller,
			Quantity:          input.Quantity,
			Total:             total,
			ListingStockAfter: listing.Stock,
		}))
	})
	if err != nil {
		return Order{}, err
	}
	return created.clone(), nil
}

// ShipOrder moves a pending order to shipped. The caller must hold the
// seller role.
func (l *Ledger) ShipOrder(ctx context.Context, caller Identity, index uint32) (Order, error) {
	return l.transition(ctx, OpShipOrder, caller, index, enums.RoleSeller, enums.OrderStatusPending, enums.OrderStatusShipped, ErrOrderNotPending, enums.EventOrderShipped)
}

// ReceiveOrder moves a shipped order to received. The caller must hold the
// buyer role.
func (l *Ledger) ReceiveOrder(ctx context.Context, caller Identity, index uint32) (Order, error) {
	return l.transition(ctx, OpReceiveOrder, caller, index, enums.RoleBuyer, enums.OrderStatusShipped, enums.OrderStatusReceived, ErrOrderNotShipped, enums.EventOrderReceived)
}

func (l *Ledger) transition(ctx context.Context, operation string, caller Identity, index uint32, role enums.Role, from, to enums.OrderStatus, wrongState error, eventType enums.OutboxEventType) (Order, error) {
	var updated Order
	err := l.write(ctx, operation, func(tx Tx) error {
		if _, err := requireRole(tx, caller, role); err != nil {
			return err
		}
		order, err := loadOrder(tx, index)
		if err != nil {
			return err
		}
		if order.Status != from {
			return wrongState
		}
		order.Status = to
		if err := tx.Orders().Put(order); err != nil {
			return err
		}
		updated = order
		return tx.Emit(l.event(eventType, enums.AggregateOrder, indexID(index), caller, OrderStatusEvent{
			Index: index,
			From:  from,
			To:    to,
		}))
	})
	if err != nil {
		return Order{}, err
	}
	return updated.clone(), nil
}

// CancelOrder cancels a pending or shipped order when the caller is one of
// its parties and both parties consent. Consumed stock is not restored.
func (l *Ledger) CancelOrder(ctx context.Context, caller Identity, index uint32, consent CancelConsent) (Order, error) {
	var updated Order
	err := l.write(ctx, OpCancelOrder, func(tx Tx) error {
		order, err := loadOrder(tx, index)
		if err != nil {
			return err
		}
		if !order.IsParticipant(caller) {
			return ErrNotOrderParticipant
		}
		switch order.Status {
		case enums.OrderStatusCancelled:
			return ErrOrderAlreadyCancelled
		case enums.OrderStatusReceived:
			return ErrOrderNotCancellable
		}
		if !consent.Buyer || !consent.Seller {
			return ErrCancellationConsentMissing
		}

		from := order.Status
		order.Status = enums.OrderStatusCancelled
		if err := tx.Orders().Put(order); err != nil {
			return err
		}
		updated = order
		return tx.Emit(l.event(enums.EventOrderCancelled, enums.AggregateOrder, indexID(index), caller, OrderStatusEvent{
			Index: index,
			From:  from,
			To:    enums.OrderStatusCancelled,
		}))
	})
	if err != nil {
		return Order{}, err
	}
	return updated.clone(), nil
}

func (l *Ledger) GetOrder(ctx context.Context, index uint32) (Order, error) {
	var found Order
	err := l.read(ctx, OpGetOrder, func(tx Tx) error {
		order, err := loadOrder(tx, index)
		found = order
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return found.clone(), nil
}

func (l *Ledger) ListOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	err := l.read(ctx, OpListOrders, func(tx Tx) error {
		all, err := tx.Orders().All()
		orders = all
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = o.clone()
	}
	return out, nil
}

func loadOrder(tx Tx, index uint32) (Order, error) {
	order, ok, err := tx.Orders().Get(index)
	if err != nil {
		return Order{}, err
	}
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return order, nil
}
