package intercom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/config"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/thread"
)

// Client talks to the Intercom conversations API.
type Client struct {
	baseURL string
	token   string
	adminID string
	perPage int
	http    *http.Client
	rebuild *thread.Reconstructor
	log     *zap.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.IntercomConfig, perPage int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perPage <= 0 {
		perPage = 50
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.AccessToken,
		adminID: cfg.AdminID,
		perPage: perPage,
		http:    &http.Client{},
		rebuild: thread.NewReconstructor(logger),
		log:     logger,
	}
}

type partsEnvelope struct {
	ConversationParts []domain.RawPart `json:"conversation_parts"`
}

type listEnvelope struct {
	Conversations []domain.RawConversation `json:"conversations"`
	Pages         struct {
		Next string `json:"next"`
	} `json:"pages"`
}

type replyPayload struct {
	MessageType string `json:"message_type"`
	Type        string `json:"type"`
	AdminID     string `json:"admin_id,omitempty"`
	Body        string `json:"body,omitempty"`
}

// GetConversation fetches conversation details.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*domain.RawConversation, error) {
	var conv domain.RawConversation
	if err := c.getJSON(ctx, c.baseURL+"/conversations/"+url.PathEscape(conversationID), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversationParts fetches all parts (messages) of a conversation.
func (c *Client) GetConversationParts(ctx context.Context, conversationID string) ([]domain.RawPart, error) {
	var envelope partsEnvelope
	if err := c.getJSON(ctx, c.baseURL+"/conversations/"+url.PathEscape(conversationID)+"/parts", &envelope); err != nil {
		return nil, err
	}
	return envelope.ConversationParts, nil
}

// ListOpenConversations fetches every open conversation, following the
// cursor pagination of the list endpoint.
func (c *Client) ListOpenConversations(ctx context.Context) ([]domain.RawConversation, error) {
	next := fmt.Sprintf("%s/conversations?open=true&per_page=%d", c.baseURL, c.perPage)

	var conversations []domain.RawConversation
	for next != "" {
		var envelope listEnvelope
		if err := c.getJSON(ctx, next, &envelope); err != nil {
			if len(conversations) > 0 {
				// A broken page boundary should not discard what we
				// already collected.
				c.log.Warn("conversation pagination aborted", zap.Error(err))
				return conversations, nil
			}
			return nil, err
		}
		conversations = append(conversations, envelope.Conversations...)
		next = envelope.Pages.Next
	}
	return conversations, nil
}

// SendReply posts an admin comment to the conversation.
func (c *Client) SendReply(ctx context.Context, conversationID, message string) error {
	return c.postReply(ctx, conversationID, replyPayload{
		MessageType: "comment",
		Type:        "admin",
		AdminID:     c.adminID,
		Body:        message,
	})
}

// CloseConversation closes the conversation on the remote side.
func (c *Client) CloseConversation(ctx context.Context, conversationID string) error {
	return c.postReply(ctx, conversationID, replyPayload{
		MessageType: "close",
		Type:        "admin",
		AdminID:     c.adminID,
	})
}

// AssignConversation assigns the conversation to the given admin.
func (c *Client) AssignConversation(ctx context.Context, conversationID, adminID string) error {
	return c.postReply(ctx, conversationID, replyPayload{
		MessageType: "assignment",
		Type:        "admin",
		AdminID:     adminID,
	})
}

// GetConversationSummary fetches a conversation with its parts and
// renders it into the summary shape: reconstructed thread body, user
// identity, message count and freshness in one call.
func (c *Client) GetConversationSummary(ctx context.Context, conversationID string) (*domain.ConversationSummary, error) {
	conv, err := c.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	parts, err := c.GetConversationParts(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	th := c.rebuild.Reconstruct(*conv, parts)

	fresh := !conv.Starred
	if fresh {
		for _, part := range parts {
			if part.PartType == domain.PartTypeComment && part.Author.Type == domain.AuthorTypeAdmin {
				fresh = false
				break
			}
		}
	}

	return &domain.ConversationSummary{
		ID:           conv.ID,
		Status:       conv.State,
		Subject:      th.Subject,
		Body:         th.Body,
		User:         conv.User,
		MessageCount: th.MessageCount,
		IsFresh:      fresh,
	}, nil
}

// IsConversationFresh reports whether no admin has commented yet.
func (c *Client) IsConversationFresh(ctx context.Context, conversationID string) (bool, error) {
	parts, err := c.GetConversationParts(ctx, conversationID)
	if err != nil {
		return false, err
	}
	for _, part := range parts {
		if part.PartType == domain.PartTypeComment && part.Author.Type == domain.AuthorTypeAdmin {
			return false, nil
		}
	}
	return true, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("intercom: GET %s returned %d", rawURL, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postReply(ctx context.Context, conversationID string, payload replyPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/conversations/" + url.PathEscape(conversationID) + "/reply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("intercom: %s reply to %s returned %d", payload.MessageType, conversationID, resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}
