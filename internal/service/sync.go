package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/repository"
	"github.com/spec-kit/intercom-bridge/internal/thread"
)

// ConversationLister lists open conversations with their freshness
// annotations and fetches their parts.
type ConversationLister interface {
	ListOpenConversations(ctx context.Context) ([]domain.RawConversation, error)
	GetConversationParts(ctx context.Context, conversationID string) ([]domain.RawPart, error)
}

// StatusSummary is the ticket census reported by the admin API.
type StatusSummary struct {
	Total    int                         `json:"total"`
	Open     int                         `json:"open"`
	Replied  int                         `json:"replied"`
	Closed   int                         `json:"closed"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
}

// SyncService sweeps open remote conversations into the display
// surface and the ticket store. The sweep is batched and rate limited:
// batchSize conversations are processed concurrently, then the sweep
// pauses for batchDelay before the next batch.
type SyncService struct {
	tickets    repository.TicketRepository
	lister     ConversationLister
	reconciler *Reconciler
	batchSize  int
	batchDelay time.Duration
	log        *zap.Logger
}

// NewSyncService constructs the service.
func NewSyncService(
	tickets repository.TicketRepository,
	lister ConversationLister,
	reconciler *Reconciler,
	batchSize int,
	batchDelay time.Duration,
	logger *zap.Logger,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &SyncService{
		tickets:    tickets,
		lister:     lister,
		reconciler: reconciler,
		batchSize:  batchSize,
		batchDelay: batchDelay,
		log:        logger,
	}
}

// SyncOpen posts every fresh open conversation and returns how many
// were posted. Individual conversation failures are logged and skipped;
// the sweep keeps going.
func (s *SyncService) SyncOpen(ctx context.Context) (int, error) {
	conversations, err := s.lister.ListOpenConversations(ctx)
	if err != nil {
		return 0, err
	}

	fresh := make([]domain.RawConversation, 0, len(conversations))
	for _, conv := range conversations {
		if isFreshListing(conv) {
			fresh = append(fresh, conv)
		}
	}

	var posted int64
	for start := 0; start < len(fresh); start += s.batchSize {
		end := start + s.batchSize
		if end > len(fresh) {
			end = len(fresh)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			conv := fresh[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.postOne(ctx, conv) {
					atomic.AddInt64(&posted, 1)
				}
			}()
		}
		wg.Wait()

		if end < len(fresh) && s.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return int(posted), ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
	}

	s.log.Info("sync sweep finished",
		zap.Int("open", len(conversations)),
		zap.Int("fresh", len(fresh)),
		zap.Int64("posted", posted))
	return int(posted), nil
}

func (s *SyncService) postOne(ctx context.Context, conv domain.RawConversation) bool {
	parts, err := s.lister.GetConversationParts(ctx, conv.ID)
	if err != nil {
		s.log.Warn("sync: parts fetch failed", zap.String("conversation_id", conv.ID), zap.Error(err))
		return false
	}
	// The listing annotations said fresh; the parts are the authority.
	if !IsFresh(conv, parts) {
		return false
	}
	if _, err := s.reconciler.PostConversation(ctx, &conv, parts); err != nil {
		s.log.Warn("sync: post failed", zap.String("conversation_id", conv.ID), zap.Error(err))
		return false
	}
	return true
}

// Status summarizes the ticket store by lifecycle bucket.
func (s *SyncService) Status(ctx context.Context) (*StatusSummary, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &StatusSummary{ByStatus: make(map[domain.TicketStatus]int)}
	summary.Total = len(tickets)
	for _, t := range tickets {
		summary.ByStatus[t.Status]++
		switch t.Status {
		case domain.TicketStatusOpen:
			summary.Open++
		case domain.TicketStatusReplied, domain.TicketStatusAdminReplied:
			summary.Replied++
		case domain.TicketStatusClosed:
			summary.Closed++
		}
	}
	return summary, nil
}

// Cleanup removes tickets whose last update is older than days.
func (s *SyncService) Cleanup(ctx context.Context, days int) (int64, error) {
	removed, err := s.tickets.DeleteOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	s.log.Info("retention cleanup", zap.Int("days", days), zap.Int64("removed", removed))
	return removed, nil
}

// isFreshListing evaluates freshness from the annotations the list
// endpoint carries, avoiding a part fetch per conversation. Starred
// conversations are excluded even without an admin reply (triage
// policy, kept from the original behavior).
func isFreshListing(conv domain.RawConversation) bool {
	if conv.Starred {
		return false
	}
	_, hasAdminReply := thread.ParseEpoch(conv.Statistics.LastAdminReplyAt)
	return !hasAdminReply
}
