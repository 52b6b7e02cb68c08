package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/display"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/events"
	"github.com/spec-kit/intercom-bridge/internal/repository"
	apperrors "github.com/spec-kit/intercom-bridge/pkg/util"
)

// DispatchResult reports what a button action ended up doing.
type DispatchResult struct {
	TicketID  string              `json:"ticket_id"`
	Status    domain.TicketStatus `json:"status"`
	ReplyText string              `json:"reply_text,omitempty"`
	Closed    bool                `json:"closed"`
}

// QuickReplyService relays display-surface actions back to the remote
// conversation. A failed remote send leaves the ticket status unchanged
// and surfaces the failure to the invoking actor; nothing is retried.
type QuickReplyService struct {
	tickets    repository.TicketRepository
	client     ConversationClient
	surface    display.Surface
	replies    map[string]domain.QuickReply
	dispatcher events.Dispatcher
	log        *zap.Logger
}

// NewQuickReplyService constructs the service.
func NewQuickReplyService(
	tickets repository.TicketRepository,
	client ConversationClient,
	surface display.Surface,
	replies []domain.QuickReply,
	dispatcher events.Dispatcher,
	logger *zap.Logger,
) *QuickReplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byKey := make(map[string]domain.QuickReply, len(replies))
	for _, qr := range replies {
		byKey[qr.Key] = qr
	}
	return &QuickReplyService{
		tickets:    tickets,
		client:     client,
		surface:    surface,
		replies:    byKey,
		dispatcher: dispatcher,
		log:        logger,
	}
}

// Dispatch executes a decoded action. customText is only consulted for
// custom-reply actions.
func (s *QuickReplyService) Dispatch(ctx context.Context, action domain.Action, customText string) (*DispatchResult, error) {
	ticket, err := s.tickets.GetByTicketID(ctx, action.TicketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": action.TicketID})
		}
		return nil, err
	}

	switch action.Verb {
	case domain.ActionQuickReply:
		def, ok := s.replies[action.Key]
		if !ok {
			return nil, apperrors.NewValidationError("unknown quick reply key", map[string]any{"key": action.Key})
		}
		return s.reply(ctx, ticket, def.ReplyText, def.Key, def.ClosesTicket)
	case domain.ActionCustomReply:
		if strings.TrimSpace(customText) == "" {
			return nil, apperrors.NewValidationError("reply text required", nil)
		}
		return s.reply(ctx, ticket, customText, "", false)
	case domain.ActionCloseTicket:
		return s.close(ctx, ticket, nil)
	default:
		return nil, apperrors.NewValidationError("unknown action verb", map[string]any{"verb": string(action.Verb)})
	}
}

func (s *QuickReplyService) reply(ctx context.Context, ticket *domain.Ticket, text, quickKey string, closes bool) (*DispatchResult, error) {
	if err := s.client.SendReply(ctx, ticket.ConversationID, text); err != nil {
		s.log.Warn("remote reply failed",
			zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		return nil, apperrors.NewRemoteFailure("intercom", err)
	}

	if err := s.tickets.UpdateStatus(ctx, ticket.TicketID, domain.TicketStatusReplied); err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventReplySent, ticket.TicketID, ticket.ConversationID, events.ReplySentPayload{
		QuickReplyKey: quickKey,
		ClosedTicket:  closes,
		BodyPreview:   preview(text),
	}))

	result := &DispatchResult{
		TicketID:  ticket.TicketID,
		Status:    domain.TicketStatusReplied,
		ReplyText: text,
	}
	if !closes {
		return result, nil
	}
	return s.close(ctx, ticket, result)
}

// close ends the conversation remotely, then marks the ticket closed
// and removes its rendered message. When the remote close fails after a
// successful reply, the ticket keeps its replied status.
func (s *QuickReplyService) close(ctx context.Context, ticket *domain.Ticket, prior *DispatchResult) (*DispatchResult, error) {
	if err := s.client.CloseConversation(ctx, ticket.ConversationID); err != nil {
		s.log.Warn("remote close failed",
			zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		if prior != nil {
			// Reply already went out; report that much.
			return prior, apperrors.NewRemoteFailure("intercom", err)
		}
		return nil, apperrors.NewRemoteFailure("intercom", err)
	}

	if err := s.tickets.UpdateStatus(ctx, ticket.TicketID, domain.TicketStatusClosed); err != nil && !repository.IsNotFound(err) {
		return nil, err
	}

	if ticket.DisplayMessageID != nil {
		if err := s.surface.DeleteMessage(ctx, *ticket.DisplayMessageID); err != nil {
			s.log.Warn("display message delete failed",
				zap.String("ticket_id", ticket.TicketID), zap.Error(err))
		}
	}

	s.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.TicketID, ticket.ConversationID, events.TicketStatusChangedPayload{
		OldStatus: ticket.Status,
		NewStatus: domain.TicketStatusClosed,
	}))

	result := prior
	if result == nil {
		result = &DispatchResult{TicketID: ticket.TicketID}
	}
	result.Status = domain.TicketStatusClosed
	result.Closed = true
	return result, nil
}

func (s *QuickReplyService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(text string) string {
	const max = 80
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
