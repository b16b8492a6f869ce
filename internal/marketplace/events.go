package marketplace

import (
	"strconv"
	"time"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// Event records a committed ledger mutation. Stores persist events with the
// transaction that produced them.
type Event struct {
	Type          enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Actor         Identity
	Data          any
	OccurredAt    time.Time
}

type UserRegisteredEvent struct {
	UserID  Identity `json:"userId"`
	Name    string   `json:"name"`
	Contact string   `json:"contact"`
}

type RoleGrantedEvent struct {
	UserID Identity   `json:"userId"`
	Role   enums.Role `json:"role"`
}

type CategoryRegisteredEvent struct {
	Index uint32 `json:"index"`
	Name  string `json:"name"`
}

type ProductCreatedEvent struct {
	Index         uint32   `json:"index"`
	Seller        Identity `json:"seller"`
	Name          string   `json:"name"`
	CategoryIndex uint32   `json:"categoryIndex"`
	Stock         uint32   `json:"stock"`
}

type ListingCreatedEvent struct {
	Index             uint32   `json:"index"`
	ProductIndex      uint32   `json:"productIndex"`
	Seller            Identity `json:"seller"`
	Stock             uint32   `json:"stock"`
	UnitPrice         uint64   `json:"unitPrice"`
	ProductStockAfter uint32   `json:"productStockAfter"`
}

type ListingActivationEvent struct {
	Index  uint32 `json:"index"`
	Active bool   `json:"active"`
}

type OrderCreatedEvent struct {
	Index             uint32   `json:"index"`
	ListingIndex      uint32   `json:"listingIndex"`
	Buyer             Identity `json:"buyer"`
	Seller            Identity `json:"seller"`
	Quantity          uint32   `json:"quantity"`
	Total             uint64   `json:"total"`
	ListingStockAfter uint32   `json:"listingStockAfter"`
}

type OrderStatusEvent struct {
	Index uint32            `json:"index"`
	From  enums.OrderStatus `json:"from"`
	To    enums.OrderStatus `json:"to"`
}

func indexID(index uint32) string {
	return strconv.FormatUint(uint64(index), 10)
}

func (l *Ledger) event(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, aggregateID string, actor Identity, data any) Event {
	return Event{
		Type:          eventType,
		AggregateType: aggregate,
		AggregateID:   aggregateID,
		Actor:         actor,
		Data:          data,
		OccurredAt:    l.now().UTC(),
	}
}
