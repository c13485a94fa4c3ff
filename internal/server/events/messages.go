// Package events publishes ledger change notifications to an AMQP broker so
// downstream consumers (notification senders, sync workers) can react without
// polling the database.
package events

import (
	"encoding/json"
	"time"

	"finledger/internal/server/models"
)

// Actions carried by a TransactionEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is the message body published after a ledger mutation.
// It carries identifiers and the amount, not the full record: consumers that
// need more fetch it themselves.
type TransactionEvent struct {
	Action      string                 `json:"action"`
	ID          int64                  `json:"id"`
	UserID      int64                  `json:"user_id"`
	Kind        models.TransactionKind `json:"kind"`
	AmountCents int64                  `json:"amount_cents"`
	Timestamp   time.Time              `json:"timestamp"`
}

// NewTransactionEvent builds an event for the given action and record.
func NewTransactionEvent(action string, t *models.Transaction) TransactionEvent {
	return TransactionEvent{
		Action:      action,
		ID:          t.ID,
		UserID:      t.UserID,
		Kind:        t.Kind,
		AmountCents: t.AmountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event from JSON bytes.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
