package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

const cacheKeyPrefix = "bridge:ticket:conv:"

// CachedTicketRepository decorates a TicketRepository with a
// read-through Redis cache on conversation-id lookups, the hot path of
// webhook reconciliation. Writes invalidate the cached entry; a cache
// outage degrades to the underlying store.
type CachedTicketRepository struct {
	inner  TicketRepository
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewCachedTicketRepository wraps inner with the given redis client.
func NewCachedTicketRepository(inner TicketRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedTicketRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedTicketRepository{inner: inner, client: client, ttl: ttl, log: logger}
}

func (c *CachedTicketRepository) Upsert(ctx context.Context, ticket *domain.Ticket) error {
	if err := c.inner.Upsert(ctx, ticket); err != nil {
		return err
	}
	c.invalidate(ctx, ticket.ConversationID)
	return nil
}

func (c *CachedTicketRepository) UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	ticket, err := c.inner.GetByTicketID(ctx, ticketID)
	if err == nil {
		c.invalidate(ctx, ticket.ConversationID)
	}
	return c.inner.UpdateStatus(ctx, ticketID, status)
}

func (c *CachedTicketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return c.inner.GetByTicketID(ctx, ticketID)
}

func (c *CachedTicketRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	key := cacheKeyPrefix + conversationID
	if c.client != nil {
		raw, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var ticket domain.Ticket
			if jsonErr := json.Unmarshal(raw, &ticket); jsonErr == nil {
				return &ticket, nil
			}
			c.invalidate(ctx, conversationID)
		} else if err != redis.Nil {
			c.log.Debug("ticket cache read failed", zap.Error(err))
		}
	}

	ticket, err := c.inner.GetByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, ticket)
	return ticket, nil
}

func (c *CachedTicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	return c.inner.ListAll(ctx)
}

func (c *CachedTicketRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	// The sweep removes an unknown set of rows; drop nothing from the
	// cache and let TTL expiry catch up.
	return c.inner.DeleteOlderThan(ctx, days)
}

func (c *CachedTicketRepository) store(ctx context.Context, key string, ticket *domain.Ticket) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("ticket cache write failed", zap.Error(err))
	}
}

func (c *CachedTicketRepository) invalidate(ctx context.Context, conversationID string) {
	if c.client == nil || conversationID == "" {
		return
	}
	if err := c.client.Del(ctx, cacheKeyPrefix+conversationID).Err(); err != nil {
		c.log.Debug("ticket cache invalidation failed", zap.Error(err))
	}
}
