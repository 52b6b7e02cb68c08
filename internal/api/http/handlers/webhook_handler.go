package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/api/dto"
	"github.com/spec-kit/intercom-bridge/internal/domain"
	"github.com/spec-kit/intercom-bridge/internal/observability"
	"github.com/spec-kit/intercom-bridge/internal/service"
)

// WebhookHandler receives Intercom notifications and drives the
// reconciler. The signature is verified over the raw body before any
// JSON parsing happens.
type WebhookHandler struct {
	reconciler *service.Reconciler
	secret     string
	metrics    *observability.Metrics
	log        *zap.Logger
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(reconciler *service.Reconciler, webhookSecret string, metrics *observability.Metrics, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		reconciler: reconciler,
		secret:     webhookSecret,
		metrics:    metrics,
		log:        logger,
	}
}

// Handle POST /webhook.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	signature := c.Get("X-Hub-Signature-256")
	if signature != "" && !VerifySignature(h.secret, body, signature) {
		h.log.Warn("webhook signature mismatch")
		return c.Status(fiber.StatusUnauthorized).SendString("Invalid signature")
	}

	var req dto.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}

	if req.Topic == "" || req.Data.ID == "" {
		return c.JSON(service.Result{Error: "Invalid webhook data"})
	}

	result, err := h.reconciler.HandleWebhook(c.UserContext(), domain.WebhookTopic(req.Topic), req.Data.ID)
	if err != nil {
		h.metrics.RecordWebhook(req.Topic, "failure")
		return err
	}
	h.metrics.RecordWebhook(req.Topic, outcome(result))
	return c.JSON(result)
}

// VerifySignature checks an HMAC-SHA256 hex digest of body against the
// supplied header value, in constant time. An empty configured secret
// skips verification entirely (explicit operational choice).
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func outcome(result service.Result) string {
	switch {
	case result.Success != "":
		return "success"
	case result.Info != "":
		return "info"
	default:
		return "error"
	}
}
