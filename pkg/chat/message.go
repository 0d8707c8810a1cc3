// Package chat holds the conversation data model shared by the controller,
// the completion client and the front-ends.
package chat

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Type is the payload kind of a message.
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
)

// Message is a single entry in the conversation log. Messages are values and
// are never mutated once appended.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"` // Text, or the image URL for TypeImage
	Type    Type   `json:"type"`
	Prompt  string `json:"prompt,omitempty"` // Original prompt, images only
}

// UserText creates a user-authored text message.
func UserText(content string) Message {
	return Message{Role: RoleUser, Type: TypeText, Content: content}
}

// AssistantText creates an assistant-authored text message.
func AssistantText(content string) Message {
	return Message{Role: RoleAssistant, Type: TypeText, Content: content}
}

// AssistantImage creates an assistant-authored image message pointing at url.
func AssistantImage(url, prompt string) Message {
	return Message{Role: RoleAssistant, Type: TypeImage, Content: url, Prompt: prompt}
}

// IsImage reports whether the message carries an image URL.
func (m Message) IsImage() bool {
	return m.Type == TypeImage
}
