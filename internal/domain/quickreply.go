package domain

// QuickReply is a predefined canned response bound to a single button,
// optionally closing the ticket after the reply is delivered.
type QuickReply struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	ReplyText    string `json:"reply"`
	ClosesTicket bool   `json:"close_ticket"`
}

// DefaultQuickReplies returns the compiled-in reply set, used when no
// override file is configured.
func DefaultQuickReplies() []QuickReply {
	return []QuickReply{
		{
			Key:          "no_robux",
			Label:        "Sorry, we don't sell Robux anymore",
			ReplyText:    "I apologize, but we no longer sell Robux. Is there anything else I can help you with?",
			ClosesTicket: true,
		},
		{
			Key:          "out_of_stock",
			Label:        "Item out of stock",
			ReplyText:    "Unfortunately, this item is currently out of stock. We'll notify you when it's available again.",
			ClosesTicket: false,
		},
		{
			Key:          "pricing_info",
			Label:        "Pricing information",
			ReplyText:    "Here's our current pricing information: [Link to pricing page]. Let me know if you need any clarification!",
			ClosesTicket: false,
		},
		{
			Key:          "technical_support",
			Label:        "Technical support",
			ReplyText:    "I'm transferring you to our technical support team. They'll be with you shortly.",
			ClosesTicket: false,
		},
	}
}
