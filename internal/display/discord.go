package display

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/config"
	"github.com/spec-kit/intercom-bridge/internal/domain"
)

const (
	colorNewTicket = 0x00ff00
	footerText     = "Intercom Ticket Bot"

	buttonStylePrimary   = 1
	buttonStyleSecondary = 2
	buttonStyleDanger    = 4

	maxButtonsPerRow     = 5
	maxDescriptionLength = 4096
)

// DiscordSurface renders tickets as channel messages with embeds and
// quick-reply button components through the Discord REST API.
type DiscordSurface struct {
	baseURL   string
	token     string
	channelID string
	http      *http.Client
	log       *zap.Logger
}

// NewDiscordSurface builds a surface from configuration.
func NewDiscordSurface(cfg config.DiscordConfig, logger *zap.Logger) *DiscordSurface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscordSurface{
		baseURL:   cfg.BaseURL,
		token:     cfg.BotToken,
		channelID: cfg.ChannelID,
		http:      &http.Client{},
		log:       logger,
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      struct {
		Text string `json:"text"`
	} `json:"footer"`
}

type button struct {
	Type     int    `json:"type"` // 2 = button
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

type actionRow struct {
	Type       int      `json:"type"` // 1 = action row
	Components []button `json:"components"`
}

type messagePayload struct {
	Embeds     []embed     `json:"embeds"`
	Components []actionRow `json:"components,omitempty"`
}

// PostTicket posts a new ticket message and returns its id.
func (d *DiscordSurface) PostTicket(ctx context.Context, render TicketRender) (string, error) {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", d.baseURL, d.channelID)
	var created struct {
		ID string `json:"id"`
	}
	if err := d.send(ctx, http.MethodPost, endpoint, buildPayload(render), &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// EditMessage replaces the rendered content of an existing message.
func (d *DiscordSurface) EditMessage(ctx context.Context, messageID string, render TicketRender) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s", d.baseURL, d.channelID, messageID)
	return d.send(ctx, http.MethodPatch, endpoint, buildPayload(render), nil)
}

// DeleteMessage removes a message; a message that is already gone is
// treated as success.
func (d *DiscordSurface) DeleteMessage(ctx context.Context, messageID string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages/%s", d.baseURL, d.channelID, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	d.setHeaders(req)

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		d.log.Debug("message already deleted", zap.String("message_id", messageID))
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: delete message %s returned %d", messageID, resp.StatusCode)
	}
	return nil
}

func buildPayload(render TicketRender) messagePayload {
	subject := render.Subject
	if subject == "" {
		subject = "No Subject"
	}
	body := render.Body
	if body == "" {
		body = "No message content"
	}
	if len(body) > maxDescriptionLength {
		body = body[:maxDescriptionLength-3] + "..."
	}

	e := embed{
		Title:       "🎫 New Ticket: " + subject,
		Description: body,
		Color:       colorNewTicket,
	}
	e.Footer.Text = footerText

	if render.UserName != "" || render.UserEmail != "" {
		name := render.UserName
		if name == "" {
			name = "Unknown"
		}
		email := render.UserEmail
		if email == "" {
			email = "No email"
		}
		e.Fields = append(e.Fields, embedField{
			Name:   "👤 User",
			Value:  fmt.Sprintf("%s (%s)", name, email),
			Inline: true,
		})
	}
	e.Fields = append(e.Fields,
		embedField{Name: "🆔 Conversation ID", Value: render.ConversationID, Inline: true},
		embedField{Name: "📊 Status", Value: render.Status, Inline: true},
	)
	if render.MessageCount > 0 {
		e.Fields = append(e.Fields, embedField{
			Name:   "💬 Message Count",
			Value:  fmt.Sprintf("%d", render.MessageCount),
			Inline: true,
		})
	}

	return messagePayload{
		Embeds:     []embed{e},
		Components: buildComponents(render),
	}
}

func buildComponents(render TicketRender) []actionRow {
	buttons := make([]button, 0, len(render.QuickReplies)+2)
	for _, qr := range render.QuickReplies {
		buttons = append(buttons, button{
			Type:  2,
			Style: buttonStylePrimary,
			Label: qr.Label,
			CustomID: domain.Action{
				Verb:     domain.ActionQuickReply,
				Key:      qr.Key,
				TicketID: render.TicketID,
			}.Encode(),
		})
	}
	buttons = append(buttons, button{
		Type:  2,
		Style: buttonStyleSecondary,
		Label: "✏️ Custom Reply",
		CustomID: domain.Action{
			Verb:     domain.ActionCustomReply,
			TicketID: render.TicketID,
		}.Encode(),
	})
	buttons = append(buttons, button{
		Type:  2,
		Style: buttonStyleDanger,
		Label: "Close Ticket",
		CustomID: domain.Action{
			Verb:     domain.ActionCloseTicket,
			TicketID: render.TicketID,
		}.Encode(),
	})

	var rows []actionRow
	for len(buttons) > 0 {
		n := len(buttons)
		if n > maxButtonsPerRow {
			n = maxButtonsPerRow
		}
		rows = append(rows, actionRow{Type: 1, Components: buttons[:n]})
		buttons = buttons[n:]
	}
	return rows
}

func (d *DiscordSurface) send(ctx context.Context, method, endpoint string, payload messagePayload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	d.setHeaders(req)

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("discord: %s %s returned %d", method, endpoint, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (d *DiscordSurface) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")
}
