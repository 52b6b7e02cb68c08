package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// ErrNotFound reports a missing ticket row.
var ErrNotFound = pgx.ErrNoRows

// TicketRepository is the durable key-value ticket store. All lookups
// are keyed uniquely by ticket id; conversation id lookups are unique
// too (one row per conversation).
type TicketRepository interface {
	Upsert(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the pgx-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// Upsert inserts a ticket row or replaces an existing one with the same
// ticket id. Re-delivered creation webhooks and reopened conversations
// land here, so replace semantics are intentional.
func (r *ticketRepository) Upsert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, display_message_id, status, last_updated, conversation_id)
        VALUES ($1,$2,$3,NOW(),$4)
        ON CONFLICT (ticket_id) DO UPDATE SET
            display_message_id = EXCLUDED.display_message_id,
            status = EXCLUDED.status,
            last_updated = NOW(),
            conversation_id = EXCLUDED.conversation_id
        RETURNING last_updated`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.DisplayMessageID,
		ticket.Status,
		ticket.ConversationID,
	).Scan(&ticket.LastUpdated)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	const query = `UPDATE tickets SET status=$1, last_updated=NOW() WHERE ticket_id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	const query = `
        SELECT ticket_id, display_message_id, status, last_updated, conversation_id
        FROM tickets WHERE ticket_id=$1`
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *ticketRepository) GetByConversationID(ctx context.Context, conversationID string) (*domain.Ticket, error) {
	const query = `
        SELECT ticket_id, display_message_id, status, last_updated, conversation_id
        FROM tickets WHERE conversation_id=$1`
	return r.fetchSingle(ctx, query, conversationID)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&ticket.TicketID,
		&ticket.DisplayMessageID,
		&ticket.Status,
		&ticket.LastUpdated,
		&ticket.ConversationID,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT ticket_id, display_message_id, status, last_updated, conversation_id
        FROM tickets ORDER BY last_updated DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", days)
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	const query = `DELETE FROM tickets WHERE last_updated < $1`
	cmd, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.TicketID,
			&ticket.DisplayMessageID,
			&ticket.Status,
			&ticket.LastUpdated,
			&ticket.ConversationID,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

// IsNotFound reports whether err is the repository's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
