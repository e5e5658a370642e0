package models

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents one entry of a conversation
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"-"`
	// Failed marks a user message whose exchange did not complete.
	// Failed messages stay visible but are never sent to the backend again.
	Failed bool `json:"-"`
}

// NewUserMessage creates a user message stamped with the current time
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Time: time.Now()}
}

// NewAssistantMessage creates an assistant message stamped with the current time
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Time: time.Now()}
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
