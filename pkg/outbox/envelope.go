package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketplace-ledger/pkg/enums"
)

// Actor identifies the ledger caller whose operation produced the event.
type Actor struct {
	CallerID uuid.UUID `json:"callerId"`
}

// PayloadEnvelope is the document stored in outbox_events.payload and
// published as the message body. It repeats the routing columns so a
// consumer can handle the body without the message attributes.
type PayloadEnvelope struct {
	Version       int                       `json:"version"`
	EventID       string                    `json:"eventId"`
	EventType     enums.OutboxEventType     `json:"eventType"`
	AggregateType enums.OutboxAggregateType `json:"aggregateType"`
	AggregateID   string                    `json:"aggregateId"`
	OccurredAt    time.Time                 `json:"occurredAt"`
	Actor         *Actor                    `json:"actor,omitempty"`
	Data          json.RawMessage           `json:"data"`
}
