package engine

import "github.com/rhuss/outings/pkg/provider"

// Conversation is the ordered message state of one session. It is
// append-only within a process_message call and is not safe for concurrent
// use; the session layer serializes access.
type Conversation struct {
	seed     []provider.Message
	messages []provider.Message
}

// NewConversation creates a conversation seeded with the given messages
// (typically the system prompt and a preferences snapshot).
func NewConversation(seed ...provider.Message) *Conversation {
	c := &Conversation{}
	c.Reset(seed...)
	return c
}

// Append adds messages to the end of the conversation.
func (c *Conversation) Append(msgs ...provider.Message) {
	c.messages = append(c.messages, msgs...)
}

// Messages returns a copy of the conversation.
func (c *Conversation) Messages() []provider.Message {
	out := make([]provider.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Reset discards all messages and re-seeds the conversation. With no
// arguments the previous seed is reused.
func (c *Conversation) Reset(seed ...provider.Message) {
	if len(seed) > 0 {
		c.seed = append([]provider.Message(nil), seed...)
	}
	c.messages = append([]provider.Message(nil), c.seed...)
}
