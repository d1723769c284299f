package events

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// ExpenseEvent is a lightweight lifecycle message. It carries only ids; a
// consumer fetches the full expense from storage when it needs one.
type ExpenseEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(id, userID, action string) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
