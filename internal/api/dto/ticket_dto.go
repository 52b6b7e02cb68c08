package dto

import (
	"time"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// WebhookRequest is the inbound Intercom notification body.
type WebhookRequest struct {
	Topic string `json:"topic"`
	Data  struct {
		ID   string         `json:"id"`
		Item map[string]any `json:"item,omitempty"`
	} `json:"data"`
}

// InteractionRequest is a display-surface component interaction.
type InteractionRequest struct {
	CustomID string `json:"custom_id"`
	Text     string `json:"text,omitempty"`
}

// TicketResponse is the admin API view of a stored ticket.
type TicketResponse struct {
	TicketID         string              `json:"ticket_id"`
	DisplayMessageID *string             `json:"display_message_id,omitempty"`
	Status           domain.TicketStatus `json:"status"`
	LastUpdated      time.Time           `json:"last_updated"`
	ConversationID   string              `json:"conversation_id"`
}

// FromTicket maps a domain ticket onto the response shape.
func FromTicket(t domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:         t.TicketID,
		DisplayMessageID: t.DisplayMessageID,
		Status:           t.Status,
		LastUpdated:      t.LastUpdated,
		ConversationID:   t.ConversationID,
	}
}

// SyncResponse reports a sync sweep outcome.
type SyncResponse struct {
	Posted int `json:"posted"`
}

// CleanupResponse reports a retention sweep outcome.
type CleanupResponse struct {
	Days    int   `json:"days"`
	Removed int64 `json:"removed"`
}
