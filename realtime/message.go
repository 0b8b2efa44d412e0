package realtime

import (
	"encoding/json"
	"time"

	"github.com/yeremiapane/floorsync/floor"
)

// Message types on the subscriber wire. Entity deltas reuse the delta
// action as the message type, the way the dashboard client expects.
const (
	TypeCreated               = "created"
	TypeUpdated               = "updated"
	TypeDeleted               = "deleted"
	TypeAtomicComplete        = "atomic_transaction_complete"
	TypeConnectionEstablished = "connection_established"
	TypeHeartbeat             = "heartbeat"
	TypePing                  = "ping"
	TypePong                  = "pong"
)

// Message is the envelope delivered to every subscriber of a restaurant.
type Message struct {
	Type         string      `json:"type"`
	RestaurantID string      `json:"restaurant_id"`
	EntityType   string      `json:"entity_type,omitempty"`
	EntityID     string      `json:"entity_id,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Data         interface{} `json:"data,omitempty"`

	// AffectedEntities lists "entityType-entityId" pairs on an
	// atomic_transaction_complete message.
	AffectedEntities []string `json:"affected_entities,omitempty"`
	TransactionID    string   `json:"transaction_id,omitempty"`
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DeltaMessage wraps one committed entity delta.
func DeltaMessage(restaurantID string, d floor.Delta) Message {
	return Message{
		Type:         d.Action,
		RestaurantID: restaurantID,
		EntityType:   d.EntityType,
		EntityID:     d.EntityID,
		Timestamp:    time.Now().UTC(),
		Data:         d.Data,
	}
}

// AtomicCompleteMessage trails the individual deltas of a batch.
func AtomicCompleteMessage(restaurantID, transactionID string, affected []string) Message {
	return Message{
		Type:             TypeAtomicComplete,
		RestaurantID:     restaurantID,
		Timestamp:        time.Now().UTC(),
		AffectedEntities: affected,
		TransactionID:    transactionID,
	}
}
