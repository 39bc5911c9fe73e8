package session

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StateTransition is one append-only audit row recording a step change.
// Rows are never updated or deleted.
type StateTransition struct {
	ID           int64           `json:"id"`
	TransitionID uuid.UUID       `json:"transitionId"`
	SessionID    string          `json:"sessionId"`
	FromStep     Step            `json:"fromStep"`
	ToStep       Step            `json:"toStep"`
	Channel      Channel         `json:"channel"`
	Trigger      json.RawMessage `json:"trigger,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// NewStateTransition builds an audit row for a step change.
func NewStateTransition(sessionID string, from, to Step, channel Channel, trigger json.RawMessage) *StateTransition {
	return &StateTransition{
		TransitionID: uuid.New(),
		SessionID:    sessionID,
		FromStep:     from,
		ToStep:       to,
		Channel:      channel,
		Trigger:      trigger,
		CreatedAt:    time.Now().UTC(),
	}
}
