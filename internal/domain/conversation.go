package domain

// PartType tags a single unit of conversation content as delivered by
// Intercom. The set is open ended; unknown tags are carried through and
// filtered at extraction time.
type PartType string

const (
	PartTypeComment    PartType = "comment"
	PartTypeAssignment PartType = "assignment"
	PartTypeClose      PartType = "close"
	PartTypeOpen       PartType = "open"
)

// System part types carry no user-visible content and are filtered out of
// reconstructed threads.
const (
	PartTypeLanguageDetection        PartType = "language_detection_details"
	PartTypeAttributeUpdatedByAdmin  PartType = "conversation_attribute_updated_by_admin"
	PartTypeAttributeUpdatedByWkflow PartType = "conversation_attribute_updated_by_workflow"
	PartTypeDefaultAssignment        PartType = "default_assignment"
)

// AuthorType indicates who authored a conversation part.
type AuthorType string

const (
	AuthorTypeUser    AuthorType = "user"
	AuthorTypeLead    AuthorType = "lead"
	AuthorTypeAdmin   AuthorType = "admin"
	AuthorTypeBot     AuthorType = "bot"
	AuthorTypeUnknown AuthorType = "unknown"
)

// Author is the optional identity attached to a part or conversation.
type Author struct {
	Type  AuthorType `json:"type"`
	ID    string     `json:"id,omitempty"`
	Name  string     `json:"name,omitempty"`
	Email string     `json:"email,omitempty"`
}

// Attachment is a file or image attached to a conversation part.
type Attachment struct {
	Type string `json:"type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// RawPart is one unit of conversation content, immutable and never
// persisted. CreatedAt is left untyped because Intercom delivers it as
// unix seconds, an ISO-8601 string, or not at all; thread.ParseEpoch is
// the single place that interprets it.
type RawPart struct {
	PartType    PartType     `json:"part_type"`
	Author      Author       `json:"author"`
	Body        *string      `json:"body"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   any          `json:"created_at"`
}

// ConversationMessage is the opening message of a conversation.
type ConversationMessage struct {
	Subject     string       `json:"subject"`
	Body        *string      `json:"body"`
	Author      Author       `json:"author"`
	Attachments []Attachment `json:"attachments"`
}

// ConversationStatistics carries the reply annotations Intercom attaches
// to listed conversations.
type ConversationStatistics struct {
	LastAdminReplyAt any `json:"last_admin_reply_at"`
}

// RawConversation is a conversation as fetched from Intercom, including
// its nested parts when the single-conversation endpoint was used.
type RawConversation struct {
	ID                  string                 `json:"id"`
	State               string                 `json:"state"`
	Starred             bool                   `json:"starred"`
	User                Author                 `json:"user"`
	ConversationMessage ConversationMessage    `json:"conversation_message"`
	Statistics          ConversationStatistics `json:"statistics"`
	CreatedAt           any                    `json:"created_at"`
	UpdatedAt           any                    `json:"updated_at"`
}

// ConversationSummary is the rendered view of a conversation handed to
// the display surface.
type ConversationSummary struct {
	ID           string
	Status       string
	Subject      string
	Body         string
	User         Author
	MessageCount int
	IsFresh      bool
}
