package platform

import "time"

// Message roles as reported by the platform.
const (
	RoleContact = "contact"
	RoleAgent   = "agent"
	RoleBot     = "bot"
)

// Message types the dispatch engine cares about.
const (
	TypeChat     = "chat"
	TypePostback = "postback"
	TypeCommand  = "command"
	TypeMention  = "mention"
)

// Participant is a user taking part in a conversation.
type Participant struct {
	User string `json:"user"`
	Role string `json:"role"`
}

// Conversation is the addressable chat thread an inbound message belongs to.
// The engine caches the latest snapshot by ID and replaces it wholesale when
// an updated one arrives.
type Conversation struct {
	ID           string         `json:"id"`
	Organization string         `json:"organization,omitempty"`
	Status       string         `json:"status,omitempty"`
	Category     string         `json:"category,omitempty"`
	Participants []Participant  `json:"participants,omitempty"`
	Meta         map[string]any `json:"meta,omitempty"`
}

// Field resolves a top-level conversation field by its wire name.
// Unknown names report false so callers can fall through to Meta.
func (c *Conversation) Field(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	switch key {
	case "id":
		return c.ID, true
	case "organization":
		return c.Organization, true
	case "status":
		return c.Status, true
	case "category":
		return c.Category, true
	case "meta":
		return c.Meta, true
	}
	return nil, false
}

// Organization holds an organization's id plus arbitrary profile data.
type Organization struct {
	ID      string         `json:"id"`
	Name    string         `json:"name,omitempty"`
	Profile map[string]any `json:"profile,omitempty"`
}

// Message is a single inbound or outbound conversation message. Inbound
// messages are immutable once received.
type Message struct {
	ID           string         `json:"id,omitempty"`
	Conversation string         `json:"conversation,omitempty"`
	User         string         `json:"user,omitempty"`
	Role         string         `json:"role,omitempty"`
	Type         string         `json:"type,omitempty"`
	Text         string         `json:"text"`
	Meta         map[string]any `json:"meta,omitempty"`
	CreatedAt    time.Time      `json:"createdAt,omitempty"`
}

// Field resolves a top-level message field by its wire name.
func (m *Message) Field(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	switch key {
	case "id":
		return m.ID, true
	case "conversation":
		return m.Conversation, true
	case "user":
		return m.User, true
	case "role":
		return m.Role, true
	case "type":
		return m.Type, true
	case "text":
		return m.Text, true
	case "meta":
		return m.Meta, true
	}
	return nil, false
}

// Payload is the envelope delivered by the platform webhook.
type Payload struct {
	Event string      `json:"event"`
	Data  PayloadData `json:"data"`
}

// PayloadData carries the resources referenced by a webhook event. Message
// events populate Conversation and Message; resource-lifecycle events carry
// an Activity record instead.
type PayloadData struct {
	Conversation *Conversation  `json:"conversation,omitempty"`
	Message      *Message       `json:"message,omitempty"`
	Activity     map[string]any `json:"activity,omitempty"`
}
