package llm

// Message is a single message in the shape the chat-completion endpoint accepts.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant"
	Content string `json:"content"` // Text only, the endpoint cannot take image payloads
}
