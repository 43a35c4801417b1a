package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Ledger event operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Entities a ledger event can refer to.
const (
	EntityTransaction = "transaction"
	EntityBudget      = "budget"
	EntityGoal        = "goal"
)

// LedgerEvent is a lightweight change notification published after a
// mutation commits. Consumers fetch current state from the store; the event
// only says that something changed for a user.
type LedgerEvent struct {
	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Entity    string    `json:"entity"`
	EntityID  int64     `json:"entity_id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(userID int64, entity string, entityID int64, op string) *LedgerEvent {
	return &LedgerEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		Entity:    entity,
		EntityID:  entityID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
