// Package convo holds the conversation data model shared by the voice and
// text channels: an append-only sequence of role-tagged turns, plus a
// TTL-bounded store keyed by sender address for SMS/WhatsApp threads.
package convo

import (
	"errors"
	"strings"
	"sync"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleCaller    Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ErrRoleOrder is returned when an append would place two turns with the
// same role back to back.
var ErrRoleOrder = errors.New("convo: consecutive turns must alternate roles")

// Turn is one utterance in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered, append-only sequence of turns.
// Roles strictly alternate between caller and assistant.
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// New returns an empty conversation.
func New() *Conversation {
	return &Conversation{}
}

// AppendCaller appends a caller turn.
func (c *Conversation) AppendCaller(content string) error {
	return c.append(RoleCaller, content)
}

// AppendAssistant appends an assistant turn.
func (c *Conversation) AppendAssistant(content string) error {
	return c.append(RoleAssistant, content)
}

func (c *Conversation) append(role Role, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.turns); n > 0 && c.turns[n-1].Role == role {
		return ErrRoleOrder
	}
	c.turns = append(c.turns, Turn{Role: role, Content: content})
	return nil
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Turns returns a copy of all turns in order.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Messages renders the conversation as an ordered role/content list with the
// given system preamble at the head, ready for a completion request.
func (c *Conversation) Messages(preamble string) []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, 0, len(c.turns)+1)
	out = append(out, Turn{Role: RoleSystem, Content: preamble})
	out = append(out, c.turns...)
	return out
}

// FullText joins all turn content with spaces, lowercased.
// Used by the booking field extractor.
func (c *Conversation) FullText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	parts := make([]string, len(c.turns))
	for i, t := range c.turns {
		parts[i] = t.Content
	}
	return strings.ToLower(strings.Join(parts, " "))
}
