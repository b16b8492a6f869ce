package enums

import "fmt"

// OutboxAggregateType names the ledger collection an event belongs to.
type OutboxAggregateType string

const (
	AggregateUser     OutboxAggregateType = "user"
	AggregateCategory OutboxAggregateType = "category"
	AggregateProduct  OutboxAggregateType = "product"
	AggregateListing  OutboxAggregateType = "listing"
	AggregateOrder    OutboxAggregateType = "order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateUser,
	AggregateCategory,
	AggregateProduct,
	AggregateListing,
	AggregateOrder,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a committed ledger mutation.
type OutboxEventType string

const (
	EventUserRegistered           OutboxEventType = "user.registered"
	EventUserRoleGranted          OutboxEventType = "user.role_granted"
	EventCategoryRegistered       OutboxEventType = "category.registered"
	EventProductCreated           OutboxEventType = "product.created"
	EventListingCreated           OutboxEventType = "listing.created"
	EventListingActivationChanged OutboxEventType = "listing.activation_changed"
	EventOrderCreated             OutboxEventType = "order.created"
	EventOrderShipped             OutboxEventType = "order.shipped"
	EventOrderReceived            OutboxEventType = "order.received"
	EventOrderCancelled           OutboxEventType = "order.cancelled"
)

var validEventTypes = []OutboxEventType{
	EventUserRegistered,
	EventUserRoleGranted,
	EventCategoryRegistered,
	EventProductCreated,
	EventListingCreated,
	EventListingActivationChanged,
	EventOrderCreated,
	EventOrderShipped,
	EventOrderReceived,
	EventOrderCancelled,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
