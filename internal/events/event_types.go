package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketPosted        EventType = "ticket_posted"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketRemoved       EventType = "ticket_removed"
	EventReplySent           EventType = "reply_sent"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	TicketID       string      `json:"ticket_id"`
	ConversationID string      `json:"conversation_id"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// NewEvent stamps a fresh event with an id and timestamp.
func NewEvent(eventType EventType, ticketID, conversationID string, payload interface{}) Event {
	return Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		TicketID:       ticketID,
		ConversationID: conversationID,
		Timestamp:      time.Now(),
		Payload:        payload,
	}
}

// TicketPostedPayload payload.
type TicketPostedPayload struct {
	DisplayMessageID string `json:"display_message_id"`
	Subject          string `json:"subject"`
	MessageCount     int    `json:"message_count"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Topic     string              `json:"topic,omitempty"`
}

// TicketRemovedPayload payload.
type TicketRemovedPayload struct {
	DisplayMessageID string `json:"display_message_id"`
	Reason           string `json:"reason"`
}

// ReplySentPayload payload.
type ReplySentPayload struct {
	QuickReplyKey string `json:"quick_reply_key,omitempty"`
	ClosedTicket  bool   `json:"closed_ticket"`
	BodyPreview   string `json:"body_preview"`
}
