package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by transaction event messages.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is published after every committed mutation. It is
// intentionally lightweight: consumers that need the full record fetch
// it from the store by id.
type TransactionEvent struct {
	TransactionID string    `json:"transaction_id"`
	OwnerID       string    `json:"owner_id"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(txID, ownerID, action string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: txID,
		OwnerID:       ownerID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
