package domain

import (
	"fmt"
	"net/url"
)

// ActionVerb names what a display-surface button does.
type ActionVerb string

const (
	ActionQuickReply  ActionVerb = "quick"
	ActionCustomReply ActionVerb = "custom"
	ActionCloseTicket ActionVerb = "close"
)

// Action is the structured payload carried in a button identifier.
// Encoded with URL query escaping so keys and ticket ids containing
// underscores or ampersands round-trip unambiguously.
type Action struct {
	Verb     ActionVerb
	Key      string
	TicketID string
}

// Encode serializes the action for use as a component custom id.
func (a Action) Encode() string {
	v := url.Values{}
	v.Set("v", string(a.Verb))
	if a.Key != "" {
		v.Set("k", a.Key)
	}
	v.Set("t", a.TicketID)
	return v.Encode()
}

// DecodeAction parses an encoded action identifier.
func DecodeAction(encoded string) (Action, error) {
	v, err := url.ParseQuery(encoded)
	if err != nil {
		return Action{}, fmt.Errorf("malformed action id: %w", err)
	}
	action := Action{
		Verb:     ActionVerb(v.Get("v")),
		Key:      v.Get("k"),
		TicketID: v.Get("t"),
	}
	switch action.Verb {
	case ActionQuickReply:
		if action.Key == "" {
			return Action{}, fmt.Errorf("quick reply action missing key")
		}
	case ActionCustomReply, ActionCloseTicket:
	default:
		return Action{}, fmt.Errorf("unknown action verb %q", action.Verb)
	}
	if action.TicketID == "" {
		return Action{}, fmt.Errorf("action missing ticket id")
	}
	return action, nil
}
