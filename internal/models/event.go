package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a notification published after the fact.
type EventType string

// Event types
const (
	EventBalanceCredited       EventType = "balance.credited"
	EventBalanceDebited        EventType = "balance.debited"
	EventTransferInitiated     EventType = "transfer.initiated"
	EventTransferStatusChanged EventType = "transfer.status_changed"
	EventOTPIssued             EventType = "otp.issued"
)

// Event is the message delivered to the notification service.
type Event struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	AccountID uuid.UUID `json:"account_id"`
	Reference string    `json:"reference,omitempty"`
	Payload   Metadata  `json:"payload,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(t EventType, accountID uuid.UUID, reference string, payload Metadata) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      t,
		AccountID: accountID,
		Reference: reference,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}
}
