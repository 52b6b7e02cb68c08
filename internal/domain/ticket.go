package domain

import "time"

// TicketStatus enumerates lifecycle states for bridged tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "open"
	TicketStatusReplied      TicketStatus = "replied"
	TicketStatusAdminReplied TicketStatus = "admin_replied"
	TicketStatusUserReplied  TicketStatus = "user_replied"
	TicketStatusAssigned     TicketStatus = "assigned"
	TicketStatusClosed       TicketStatus = "closed"
)

// Ticket is the persisted record tracking a remote conversation's
// lifecycle and its rendered-message identity on the display surface.
// TicketID equals the Intercom conversation id in practice, but
// ConversationID is kept as its own column for lookup by either key.
type Ticket struct {
	TicketID         string
	DisplayMessageID *string
	Status           TicketStatus
	LastUpdated      time.Time
	ConversationID   string
}

// WebhookTopic enumerates the Intercom notification topics the
// reconciler understands.
type WebhookTopic string

const (
	TopicUserCreated   WebhookTopic = "conversation.user.created"
	TopicUserReplied   WebhookTopic = "conversation.user.replied"
	TopicAdminReplied  WebhookTopic = "conversation.admin.replied"
	TopicAdminClosed   WebhookTopic = "conversation.admin.closed"
	TopicAdminAssigned WebhookTopic = "conversation.admin.assigned"
)
