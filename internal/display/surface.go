package display

import (
	"context"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// TicketRender is everything the surface needs to render one ticket.
type TicketRender struct {
	TicketID       string
	ConversationID string
	Subject        string
	Body           string
	Status         string
	UserName       string
	UserEmail      string
	MessageCount   int
	QuickReplies   []domain.QuickReply
}

// Surface is anything that can post, edit and delete a rendered ticket
// message. DeleteMessage must tolerate "already deleted" without
// returning an error.
type Surface interface {
	PostTicket(ctx context.Context, render TicketRender) (messageID string, err error)
	EditMessage(ctx context.Context, messageID string, render TicketRender) error
	DeleteMessage(ctx context.Context, messageID string) error
}
