package thread

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/intercom-bridge/internal/domain"
)

// BlockSeparator joins author-grouped blocks in the rendered body.
const BlockSeparator = "\n\n---\n\n"

// Message is a single displayable entry in a reconstructed thread.
// Constructed fresh on every reconciliation, never stored.
type Message struct {
	Author     string
	AuthorType domain.AuthorType
	Content    string
	SortKey    int64
	IsInitial  bool
	PartType   domain.PartType
}

// Thread is the chronologically ordered, author-grouped reconstruction
// of all message parts of a conversation.
type Thread struct {
	Subject      string
	Body         string
	Messages     []Message
	MessageCount int
}

// Reconstructor builds display threads out of raw conversation data.
type Reconstructor struct {
	log *zap.Logger
}

// NewReconstructor returns a Reconstructor logging through the given logger.
func NewReconstructor(logger *zap.Logger) *Reconstructor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconstructor{log: logger}
}

// Reconstruct orders all parts of a conversation chronologically,
// resolves author identities, groups consecutive same-author messages
// and renders the result. Unparsable timestamps sort first rather than
// failing the whole thread.
func (r *Reconstructor) Reconstruct(conv domain.RawConversation, parts []domain.RawPart) Thread {
	messages := make([]Message, 0, len(parts)+1)

	if initial, ok := r.initialMessage(conv); ok {
		messages = append(messages, initial)
	}

	for _, part := range parts {
		content, ok := Extract(part)
		if !ok {
			continue
		}
		messages = append(messages, Message{
			Author:     ResolveAuthor(part.Author),
			AuthorType: authorType(part.Author),
			Content:    content,
			SortKey:    r.sortKey(conv.ID, part.CreatedAt),
			PartType:   part.PartType,
		})
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SortKey < messages[j].SortKey
	})

	return Thread{
		Subject:      conv.ConversationMessage.Subject,
		Body:         Render(messages),
		Messages:     messages,
		MessageCount: len(messages),
	}
}

func (r *Reconstructor) initialMessage(conv domain.RawConversation) (Message, bool) {
	opening := conv.ConversationMessage
	part := domain.RawPart{
		PartType:    domain.PartTypeComment,
		Author:      opening.Author,
		Body:        opening.Body,
		Attachments: opening.Attachments,
		CreatedAt:   conv.CreatedAt,
	}
	if part.Author == (domain.Author{}) {
		part.Author = conv.User
	}
	if bodyText(opening.Body) == "" && len(opening.Attachments) == 0 {
		return Message{}, false
	}
	content, ok := Extract(part)
	if !ok {
		return Message{}, false
	}
	return Message{
		Author:     ResolveAuthor(part.Author),
		AuthorType: authorType(part.Author),
		Content:    content,
		SortKey:    r.sortKey(conv.ID, conv.CreatedAt),
		IsInitial:  true,
		PartType:   domain.PartTypeComment,
	}, true
}

func (r *Reconstructor) sortKey(conversationID string, createdAt any) int64 {
	key, ok := ParseEpoch(createdAt)
	if !ok && createdAt != nil {
		r.log.Debug("unparsable part timestamp, sorting first",
			zap.String("conversation_id", conversationID),
			zap.Any("created_at", createdAt))
	}
	return key
}

// ResolveAuthor picks the best available display name: explicit name,
// then email, then id, then a label derived from the author type.
func ResolveAuthor(a domain.Author) string {
	if a.Name != "" {
		return a.Name
	}
	if a.Email != "" {
		return a.Email
	}
	if a.ID != "" {
		return a.ID
	}
	switch a.Type {
	case domain.AuthorTypeLead:
		return "Lead User"
	case domain.AuthorTypeUser:
		return "User"
	case domain.AuthorTypeAdmin:
		return "Admin"
	case domain.AuthorTypeBot:
		return "Fin (AI Bot)"
	case "":
		return "Unknown User"
	default:
		return titleCase(string(a.Type)) + " User"
	}
}

func authorType(a domain.Author) domain.AuthorType {
	if a.Type == "" {
		return domain.AuthorTypeUnknown
	}
	return a.Type
}

// Render groups adjacent messages sharing the same resolved author into
// blocks, numbering entries inside multi-message blocks, and joins the
// blocks with a visible separator. The thread body always equals
// rendering its sorted message list this way.
func Render(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	var blocks []string
	for i := 0; i < len(messages); {
		j := i
		for j < len(messages) && sameAuthor(messages[j], messages[i]) {
			j++
		}
		blocks = append(blocks, renderBlock(messages[i:j]))
		i = j
	}
	return strings.Join(blocks, BlockSeparator)
}

func sameAuthor(a, b Message) bool {
	return a.Author == b.Author && a.AuthorType == b.AuthorType
}

func renderBlock(group []Message) string {
	header := fmt.Sprintf("**%s (%s)**", group[0].Author, group[0].AuthorType)
	if len(group) == 1 {
		return header + "\n" + group[0].Content
	}
	lines := make([]string, 0, len(group)+1)
	lines = append(lines, header)
	for i, msg := range group {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, msg.Content))
	}
	return strings.Join(lines, "\n")
}
