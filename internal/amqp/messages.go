package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event kinds carried by transaction event messages.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// TransactionEventMessage announces a transaction mutation to other
// sessions. It carries only the id and the affected period; a consumer
// that cares about the payload fetches it from the store, which also
// makes stale deliveries harmless.
type TransactionEventMessage struct {
	Kind      string    `json:"kind"`
	ID        uuid.UUID `json:"id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(kind string, id uuid.UUID, year int, month time.Month) *TransactionEventMessage {
	return &TransactionEventMessage{
		Kind:      kind,
		ID:        id,
		Year:      year,
		Month:     int(month),
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventMessageFromJSON creates a message from JSON bytes.
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
