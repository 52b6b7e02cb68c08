package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/intercom-bridge/internal/display"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/events"
	"github.com/spec-kit/intercom-bridge/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepository keyed by ticket id.
type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	upsertErr error
	updateErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) Upsert(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	stored := *ticket
	stored.LastUpdated = time.Now()
	f.tickets[ticket.TicketID] = &stored
	ticket.LastUpdated = stored.LastUpdated
	return nil
}

func (f *fakeTicketRepo) UpdateStatus(_ context.Context, ticketID string, status domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.Status = status
	ticket.LastUpdated = time.Now()
	return nil
}

func (f *fakeTicketRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticket, ok := f.tickets[ticketID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetByConversationID(_ context.Context, conversationID string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ticket := range f.tickets {
		if ticket.ConversationID == conversationID {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Ticket, 0, len(f.tickets))
	for _, ticket := range f.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

func (f *fakeTicketRepo) DeleteOlderThan(_ context.Context, days int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -days)
	var removed int64
	for id, ticket := range f.tickets {
		if ticket.LastUpdated.Before(cutoff) {
			delete(f.tickets, id)
			removed++
		}
	}
	return removed, nil
}

// fakeConversationClient serves canned conversations and records the
// calls made against the remote API.
type fakeConversationClient struct {
	mu            sync.Mutex
	conversations map[string]*domain.RawConversation
	parts         map[string][]domain.RawPart
	listing       []domain.RawConversation

	fetchErr error
	replyErr error
	closeErr error
	listErr  error

	sentReplies []string
	closed      []string
	assigned    []string
}

func newFakeConversationClient() *fakeConversationClient {
	return &fakeConversationClient{
		conversations: map[string]*domain.RawConversation{},
		parts:         map[string][]domain.RawPart{},
	}
}

func (f *fakeConversationClient) GetConversation(_ context.Context, id string) (*domain.RawConversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	conv, ok := f.conversations[id]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationClient) GetConversationParts(_ context.Context, id string) ([]domain.RawPart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.parts[id], nil
}

func (f *fakeConversationClient) SendReply(_ context.Context, id, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return f.replyErr
	}
	f.sentReplies = append(f.sentReplies, id+"|"+message)
	return nil
}

func (f *fakeConversationClient) CloseConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeConversationClient) AssignConversation(_ context.Context, id, adminID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, id+"|"+adminID)
	return nil
}

func (f *fakeConversationClient) ListOpenConversations(_ context.Context) ([]domain.RawConversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.RawConversation{}, f.listing...), nil
}

// fakeSurface records display operations.
type fakeSurface struct {
	mu      sync.Mutex
	nextID  int
	postErr error
	delErr  error
	posted  []display.TicketRender
	deleted []string
}

func (f *fakeSurface) PostTicket(_ context.Context, render display.TicketRender) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return "", f.postErr
	}
	f.nextID++
	f.posted = append(f.posted, render)
	return fmt.Sprintf("msg-%s-%d", render.TicketID, f.nextID), nil
}

func (f *fakeSurface) EditMessage(_ context.Context, _ string, _ display.TicketRender) error {
	return nil
}

func (f *fakeSurface) DeleteMessage(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (r *recordingDispatcher) byType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func freshConversation(id, userName string) *domain.RawConversation {
	body := "<p>I need help</p>"
	return &domain.RawConversation{
		ID:        id,
		State:     "open",
		User:      domain.Author{Type: domain.AuthorTypeUser, Name: userName},
		CreatedAt: 100,
		ConversationMessage: domain.ConversationMessage{
			Subject: "Need help",
			Body:    &body,
		},
	}
}

func adminCommentPart() domain.RawPart {
	body := "already answered"
	return domain.RawPart{
		PartType:  domain.PartTypeComment,
		Author:    domain.Author{Type: domain.AuthorTypeAdmin, Name: "Bob"},
		Body:      &body,
		CreatedAt: 200,
	}
}
