package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// BalanceChangedMessage is published after every persisted credit, debit or reset
type BalanceChangedMessage struct {
	EventID      string    `json:"event_id"`
	Operation    string    `json:"operation"`
	StudentName  string    `json:"student_name"`
	AmountCents  int64     `json:"amount_cents"`
	BalanceCents int64     `json:"balance_cents"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewBalanceChangedMessage creates a message with a fresh event ID
func NewBalanceChangedMessage(change core.BalanceChange) *BalanceChangedMessage {
	ts := change.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &BalanceChangedMessage{
		EventID:      uuid.NewString(),
		Operation:    change.Operation,
		StudentName:  change.Account.Name,
		AmountCents:  change.Amount.Cents,
		BalanceCents: change.Account.Balance.Cents,
		Timestamp:    ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *BalanceChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BalanceChangedMessageFromJSON creates a message from JSON bytes
func BalanceChangedMessageFromJSON(data []byte) (*BalanceChangedMessage, error) {
	var msg BalanceChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
