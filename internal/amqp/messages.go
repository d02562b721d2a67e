package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action names the mutation a TransactionEvent reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// TransactionEvent is a lightweight change notification. It carries only the
// id; consumers read the current row from the store.
type TransactionEvent struct {
	MessageID     string    `json:"message_id"`
	TransactionID int64     `json:"transaction_id"`
	Action        Action    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(id int64, action Action) *TransactionEvent {
	return &TransactionEvent{
		MessageID:     uuid.NewString(),
		TransactionID: id,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID <= 0 {
		return nil, fmt.Errorf("invalid transaction id %d", msg.TransactionID)
	}
	if !msg.Action.Valid() {
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
