package event

import (
	"time"
)

// Envelope wraps every event in the operation log
type Envelope struct {
	// Monotonic sequence assigned by the engine
	Sequence int64

	// Stable idempotency key from the originating operation
	IdempotencyKey string

	// Event type discriminator
	EventType Type

	// Time the engine completed the operation
	Timestamp time.Time

	// JSON-encoded event-specific data
	Payload []byte
}
