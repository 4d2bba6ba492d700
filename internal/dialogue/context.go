package dialogue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxHistory bounds a conversation's message window when no explicit
// limit is configured.
const DefaultMaxHistory = 10

// Message is a single conversation turn.
type Message struct {
	Timestamp time.Time      `json:"timestamp"`
	Role      string         `json:"role"` // "user" or "assistant"
	Content   string         `json:"content"`
	Intent    string         `json:"intent,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// ConversationContext is the rolling state of one conversation session.
// Entities and Slots are opaque passthrough maps.
type ConversationContext struct {
	UserID        string         `json:"user_id"`
	SessionID     string         `json:"session_id"`
	CreatedAt     time.Time      `json:"created_at"`
	LastActivity  time.Time      `json:"last_activity"`
	CurrentIntent string         `json:"current_intent,omitempty"`
	Entities      map[string]any `json:"entities"`
	Slots         map[string]any `json:"slots"`
	Messages      []Message      `json:"messages"`
	MaxHistory    int            `json:"max_history"`
}

// NewConversationContext creates a fresh session for userID.
// maxHistory <= 0 falls back to DefaultMaxHistory.
func NewConversationContext(userID string, maxHistory int) *ConversationContext {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	now := time.Now().UTC()
	return &ConversationContext{
		UserID:       userID,
		SessionID:    uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		Entities:     map[string]any{},
		Slots:        map[string]any{},
		Messages:     []Message{},
		MaxHistory:   maxHistory,
	}
}

// AddMessage appends a turn, stamps LastActivity, and evicts the oldest
// messages so len(Messages) never exceeds the history bound.
func (c *ConversationContext) AddMessage(role, content, intent string, extra map[string]any) {
	now := time.Now().UTC()
	c.Messages = append(c.Messages, Message{
		Timestamp: now,
		Role:      role,
		Content:   content,
		Intent:    intent,
		Extra:     extra,
	})
	c.LastActivity = now

	max := c.MaxHistory
	if max <= 0 {
		max = DefaultMaxHistory
	}
	if len(c.Messages) > max {
		c.Messages = c.Messages[len(c.Messages)-max:]
	}
}

// LastMessages returns up to n of the most recent turns.
func (c *ConversationContext) LastMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	out := make([]Message, n)
	copy(out, c.Messages[len(c.Messages)-n:])
	return out
}

// Clone returns a deep copy so callers can hold the context outside the
// manager's lock.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Entities = copyMap(c.Entities)
	cp.Slots = copyMap(c.Slots)
	cp.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		cp.Messages[i] = m
		cp.Messages[i].Extra = copyMap(m.Extra)
	}
	return &cp
}

func copyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
