package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/display"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/events"
	"github.com/spec-kit/intercom-bridge/internal/repository"
	"github.com/spec-kit/intercom-bridge/internal/thread"
)

// ConversationClient is the slice of the Intercom client the services need.
type ConversationClient interface {
	GetConversation(ctx context.Context, conversationID string) (*domain.RawConversation, error)
	GetConversationParts(ctx context.Context, conversationID string) ([]domain.RawPart, error)
	SendReply(ctx context.Context, conversationID, message string) error
	CloseConversation(ctx context.Context, conversationID string) error
	AssignConversation(ctx context.Context, conversationID, adminID string) error
}

// Result is the outcome reported back to the webhook caller. Exactly
// one field is set.
type Result struct {
	Success string `json:"success,omitempty"`
	Info    string `json:"info,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reconciler keeps the local ticket store and the display surface
// consistent with the remote conversation lifecycle. Handlers are
// idempotent: all lookups key on conversation id, upserts replace, and
// removing an already-removed message counts as success.
type Reconciler struct {
	tickets    repository.TicketRepository
	client     ConversationClient
	surface    display.Surface
	rebuild    *thread.Reconstructor
	replies    []domain.QuickReply
	dispatcher events.Dispatcher
	log        *zap.Logger
}

// ReconcilerDependencies bundles collaborators for the reconciler.
type ReconcilerDependencies struct {
	Tickets    repository.TicketRepository
	Client     ConversationClient
	Surface    display.Surface
	Rebuild    *thread.Reconstructor
	Replies    []domain.QuickReply
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewReconciler constructs the service.
func NewReconciler(deps ReconcilerDependencies) *Reconciler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rebuild := deps.Rebuild
	if rebuild == nil {
		rebuild = thread.NewReconstructor(logger)
	}
	return &Reconciler{
		tickets:    deps.Tickets,
		client:     deps.Client,
		surface:    deps.Surface,
		rebuild:    rebuild,
		replies:    deps.Replies,
		dispatcher: deps.Dispatcher,
		log:        logger,
	}
}

// HandleWebhook maps a webhook topic onto a ticket lifecycle
// transition. Unknown topics are informational, never errors; a
// returned error means an unexpected local failure (store outage).
func (r *Reconciler) HandleWebhook(ctx context.Context, topic domain.WebhookTopic, conversationID string) (Result, error) {
	switch topic {
	case domain.TopicUserCreated:
		return r.handleNewTicket(ctx, conversationID)
	case domain.TopicUserReplied:
		return r.transition(ctx, conversationID, domain.TicketStatusUserReplied, true, topic)
	case domain.TopicAdminReplied:
		return r.transition(ctx, conversationID, domain.TicketStatusAdminReplied, true, topic)
	case domain.TopicAdminClosed:
		return r.transition(ctx, conversationID, domain.TicketStatusClosed, true, topic)
	case domain.TopicAdminAssigned:
		return r.transition(ctx, conversationID, domain.TicketStatusAssigned, false, topic)
	default:
		return Result{Info: fmt.Sprintf("Unhandled topic: %s", topic)}, nil
	}
}

func (r *Reconciler) handleNewTicket(ctx context.Context, conversationID string) (Result, error) {
	conv, err := r.client.GetConversation(ctx, conversationID)
	if err != nil {
		r.log.Warn("conversation fetch failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return Result{Error: "Could not fetch conversation data"}, nil
	}
	parts, err := r.client.GetConversationParts(ctx, conversationID)
	if err != nil {
		r.log.Warn("conversation parts fetch failed", zap.String("conversation_id", conversationID), zap.Error(err))
		return Result{Error: "Could not fetch conversation data"}, nil
	}

	if !IsFresh(*conv, parts) {
		return Result{Info: "Ticket already has admin replies, skipping"}, nil
	}

	return r.PostConversation(ctx, conv, parts)
}

// PostConversation renders a fresh conversation, posts it to the
// display surface and upserts the ticket row. Re-delivered creation
// events land here with a ticket already stored; the prior rendered
// message is removed first so exactly one message stays live. A display
// outage does not lose the ticket: the row is persisted without a
// message id and the outcome is reported as informational.
func (r *Reconciler) PostConversation(ctx context.Context, conv *domain.RawConversation, parts []domain.RawPart) (Result, error) {
	if existing, err := r.tickets.GetByConversationID(ctx, conv.ID); err == nil {
		r.removeDisplayMessage(ctx, existing)
	} else if !repository.IsNotFound(err) {
		return Result{}, err
	}

	th := r.rebuild.Reconstruct(*conv, parts)

	render := display.TicketRender{
		TicketID:       conv.ID,
		ConversationID: conv.ID,
		Subject:        th.Subject,
		Body:           th.Body,
		Status:         string(domain.TicketStatusOpen),
		UserName:       conv.User.Name,
		UserEmail:      conv.User.Email,
		MessageCount:   th.MessageCount,
		QuickReplies:   r.replies,
	}

	var messageID *string
	posted, postErr := r.surface.PostTicket(ctx, render)
	if postErr != nil {
		r.log.Warn("display post failed, persisting ticket without message id",
			zap.String("conversation_id", conv.ID), zap.Error(postErr))
	} else {
		messageID = &posted
	}

	ticket := &domain.Ticket{
		TicketID:         conv.ID,
		DisplayMessageID: messageID,
		Status:           domain.TicketStatusOpen,
		ConversationID:   conv.ID,
	}
	if err := r.tickets.Upsert(ctx, ticket); err != nil {
		return Result{}, err
	}

	r.publish(ctx, events.NewEvent(events.EventTicketPosted, ticket.TicketID, conv.ID, events.TicketPostedPayload{
		DisplayMessageID: stringValue(messageID),
		Subject:          th.Subject,
		MessageCount:     th.MessageCount,
	}))

	if postErr != nil {
		return Result{Info: fmt.Sprintf("Ticket stored but display post failed: %s", conv.ID)}, nil
	}
	return Result{Success: fmt.Sprintf("New ticket posted to Discord: %s", conv.ID)}, nil
}

func (r *Reconciler) transition(ctx context.Context, conversationID string, status domain.TicketStatus, removeDisplay bool, topic domain.WebhookTopic) (Result, error) {
	ticket, err := r.tickets.GetByConversationID(ctx, conversationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Result{Info: "Ticket not found in database"}, nil
		}
		return Result{}, err
	}

	if removeDisplay {
		r.removeDisplayMessage(ctx, ticket)
	}

	oldStatus := ticket.Status
	if err := r.tickets.UpdateStatus(ctx, ticket.TicketID, status); err != nil {
		if repository.IsNotFound(err) {
			// Row vanished between lookup and update (retention sweep
			// race); webhooks stay soft.
			return Result{Info: "Ticket not found in database"}, nil
		}
		return Result{}, err
	}

	r.publish(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.TicketID, conversationID, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: status,
		Topic:     string(topic),
	}))

	return Result{Success: fmt.Sprintf("%s handled for ticket: %s", topic, conversationID)}, nil
}

// removeDisplayMessage deletes the rendered message. Display failures
// are logged and swallowed; the store stays authoritative.
func (r *Reconciler) removeDisplayMessage(ctx context.Context, ticket *domain.Ticket) {
	if ticket.DisplayMessageID == nil {
		return
	}
	if err := r.surface.DeleteMessage(ctx, *ticket.DisplayMessageID); err != nil {
		r.log.Warn("display message delete failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("message_id", *ticket.DisplayMessageID),
			zap.Error(err))
		return
	}
	r.publish(ctx, events.NewEvent(events.EventTicketRemoved, ticket.TicketID, ticket.ConversationID, events.TicketRemovedPayload{
		DisplayMessageID: *ticket.DisplayMessageID,
		Reason:           "lifecycle transition",
	}))
}

func (r *Reconciler) publish(ctx context.Context, event events.Event) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, event)
}

// IsFresh reports whether a fully fetched conversation is eligible for
// first-time posting: no admin comment among its parts and not starred.
// Starred conversations are held back even without an admin reply; that
// is a triage policy carried over deliberately.
func IsFresh(conv domain.RawConversation, parts []domain.RawPart) bool {
	if conv.Starred {
		return false
	}
	for _, part := range parts {
		if part.PartType == domain.PartTypeComment && part.Author.Type == domain.AuthorTypeAdmin {
			return false
		}
	}
	return true
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
