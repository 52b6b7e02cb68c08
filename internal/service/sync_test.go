package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

func newTestSyncService(repo *fakeTicketRepo, client *fakeConversationClient) *SyncService {
	reconciler := newTestReconciler(repo, client, &fakeSurface{}, nil)
	return NewSyncService(repo, client, reconciler, 2, 0, nil)
}

func TestSyncOpenPostsFreshConversations(t *testing.T) {
	repo := newFakeTicketRepo()
	client := newFakeConversationClient()

	for _, id := range []string{"c1", "c2", "c3"} {
		conv := freshConversation(id, "Alice")
		client.conversations[id] = conv
		client.listing = append(client.listing, *conv)
	}

	s := newTestSyncService(repo, client)
	posted, err := s.SyncOpen(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, posted)
	assert.Len(t, repo.tickets, 3)
}

func TestSyncOpenFiltersListingAnnotations(t *testing.T) {
	repo := newFakeTicketRepo()
	client := newFakeConversationClient()

	fresh := freshConversation("c1", "Alice")
	client.conversations["c1"] = fresh

	answered := freshConversation("c2", "Bob")
	answered.Statistics.LastAdminReplyAt = 1700000000
	client.conversations["c2"] = answered

	starred := freshConversation("c3", "Carol")
	starred.Starred = true
	client.conversations["c3"] = starred

	client.listing = []domain.RawConversation{*fresh, *answered, *starred}

	s := newTestSyncService(repo, client)
	posted, err := s.SyncOpen(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, posted)
	_, err = repo.GetByConversationID(context.Background(), "c1")
	assert.NoError(t, err)
}

func TestSyncOpenRechecksPartsBeforePosting(t *testing.T) {
	repo := newFakeTicketRepo()
	client := newFakeConversationClient()

	// Listing says fresh, but the parts reveal an admin comment.
	conv := freshConversation("c1", "Alice")
	client.conversations["c1"] = conv
	client.parts["c1"] = []domain.RawPart{adminCommentPart()}
	client.listing = []domain.RawConversation{*conv}

	s := newTestSyncService(repo, client)
	posted, err := s.SyncOpen(context.Background())

	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, repo.tickets)
}

func TestSyncOpenListFailure(t *testing.T) {
	client := newFakeConversationClient()
	client.listErr = errors.New("api down")

	s := newTestSyncService(newFakeTicketRepo(), client)
	_, err := s.SyncOpen(context.Background())
	assert.Error(t, err)
}

func TestStatusSummarizesByLifecycleBucket(t *testing.T) {
	repo := newFakeTicketRepo()
	statuses := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusOpen,
		domain.TicketStatusReplied,
		domain.TicketStatusAdminReplied,
		domain.TicketStatusClosed,
		domain.TicketStatusAssigned,
	}
	for i, status := range statuses {
		id := string(rune('a' + i))
		repo.tickets[id] = &domain.Ticket{TicketID: id, ConversationID: id, Status: status}
	}

	s := newTestSyncService(repo, newFakeConversationClient())
	summary, err := s.Status(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.Open)
	assert.Equal(t, 2, summary.Replied)
	assert.Equal(t, 1, summary.Closed)
	assert.Equal(t, 1, summary.ByStatus[domain.TicketStatusAssigned])
}

func TestCleanupRemovesStaleTickets(t *testing.T) {
	repo := newFakeTicketRepo()
	repo.tickets["old"] = &domain.Ticket{
		TicketID:       "old",
		ConversationID: "old",
		Status:         domain.TicketStatusClosed,
		LastUpdated:    time.Now().AddDate(0, 0, -40),
	}
	repo.tickets["recent"] = &domain.Ticket{
		TicketID:       "recent",
		ConversationID: "recent",
		Status:         domain.TicketStatusOpen,
		LastUpdated:    time.Now(),
	}

	s := newTestSyncService(repo, newFakeConversationClient())
	removed, err := s.Cleanup(context.Background(), 30)

	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	_, err = repo.GetByTicketID(context.Background(), "recent")
	assert.NoError(t, err)
}

func TestIsFreshListing(t *testing.T) {
	fresh := domain.RawConversation{ID: "c1"}
	assert.True(t, isFreshListing(fresh))

	answered := fresh
	answered.Statistics.LastAdminReplyAt = 1700000000
	assert.False(t, isFreshListing(answered))

	starred := fresh
	starred.Starred = true
	assert.False(t, isFreshListing(starred))

	nullReply := fresh
	nullReply.Statistics.LastAdminReplyAt = nil
	assert.True(t, isFreshListing(nullReply))
}
