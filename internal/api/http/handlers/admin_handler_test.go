package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/intercom-bridge/internal/api/http"
	"github.com/spec-kit/intercom-bridge/internal/api/http/handlers"
	"github.com/spec-kit/intercom-bridge/internal/auth"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/service"
)

// listingRepo adds stored tickets and a canned open-conversation
// listing on top of the stubs.
type listingRepo struct {
	stubRepo
	tickets []domain.Ticket
}

func (r listingRepo) ListAll(context.Context) ([]domain.Ticket, error) {
	return r.tickets, nil
}

type listingClient struct {
	stubClient
	listing []domain.RawConversation
}

func (c listingClient) ListOpenConversations(context.Context) ([]domain.RawConversation, error) {
	return c.listing, nil
}

func newAdminApp(t *testing.T, repo listingRepo, client listingClient) (*fiber.App, string) {
	t.Helper()

	reconciler := service.NewReconciler(service.ReconcilerDependencies{
		Tickets: repo,
		Client:  client,
		Surface: stubSurface{},
	})
	syncService := service.NewSyncService(repo, client, reconciler, 5, 0, nil)

	tokens := auth.NewTokenManager("test-secret", 60)
	token, _, err := tokens.GenerateToken("op-1")
	require.NoError(t, err)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("bridge", "test", nil, nil),
		Webhook:        handlers.NewWebhookHandler(reconciler, "", nil, nil),
		Interactions:   handlers.NewInteractionsHandler(service.NewQuickReplyService(repo, client, stubSurface{}, nil, nil, nil)),
		Admin:          handlers.NewAdminHandler(syncService, repo, 30),
		AuthMiddleware: auth.NewMiddleware(tokens),
	})
	return app, token
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app, token := newAdminApp(t, listingRepo{}, listingClient{})

	req := httptest.NewRequest("GET", "/admin/tickets", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/tickets", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminListTickets(t *testing.T) {
	msgID := "msg-1"
	app, token := newAdminApp(t, listingRepo{tickets: []domain.Ticket{
		{TicketID: "t1", ConversationID: "c1", DisplayMessageID: &msgID, Status: domain.TicketStatusOpen},
		{TicketID: "t2", ConversationID: "c2", Status: domain.TicketStatusClosed},
	}}, listingClient{})

	req := httptest.NewRequest("GET", "/admin/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "t1", body.Data[0]["ticket_id"])
	assert.Equal(t, "msg-1", body.Data[0]["display_message_id"])
	_, hasMsg := body.Data[1]["display_message_id"]
	assert.False(t, hasMsg, "nil message id omitted")
}

func TestAdminStatus(t *testing.T) {
	app, token := newAdminApp(t, listingRepo{tickets: []domain.Ticket{
		{TicketID: "t1", Status: domain.TicketStatusOpen},
		{TicketID: "t2", Status: domain.TicketStatusClosed},
	}}, listingClient{})

	req := httptest.NewRequest("GET", "/admin/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data service.StatusSummary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Data.Total)
	assert.Equal(t, 1, body.Data.Open)
	assert.Equal(t, 1, body.Data.Closed)
}

func TestAdminSync(t *testing.T) {
	body := "help me"
	app, token := newAdminApp(t, listingRepo{}, listingClient{listing: []domain.RawConversation{
		{ID: "c1", ConversationMessage: domain.ConversationMessage{Body: &body}},
	}})

	req := httptest.NewRequest("POST", "/admin/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data struct {
			Posted int `json:"posted"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 1, payload.Data.Posted)
}

func TestAdminCleanupValidatesDays(t *testing.T) {
	app, token := newAdminApp(t, listingRepo{}, listingClient{})

	req := httptest.NewRequest("POST", "/admin/cleanup?days=-3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("POST", "/admin/cleanup?days=7", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data struct {
			Days    int   `json:"days"`
			Removed int64 `json:"removed"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 7, payload.Data.Days)
	assert.Zero(t, payload.Data.Removed)
}
