package events

import (
	"encoding/json"
	"time"
)

// Event kinds published after ledger-mutating operations.
const (
	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
	RecurringExecuted  = "recurring.executed"
	SavingsDeducted    = "savings.deducted"
	AccountChanged     = "account.changed"
	CategoryChanged    = "category.changed"
)

// LedgerEvent is a lightweight notification that a user's ledger changed.
// Consumers re-read whatever they need; the event intentionally carries no
// figures, only who and what kind.
type LedgerEvent struct {
	UserID    int64     `json:"userId"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(userID int64, kind string) *LedgerEvent {
	return &LedgerEvent{
		UserID:    userID,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
