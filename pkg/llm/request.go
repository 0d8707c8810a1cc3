package llm

// ChatRequest is the outbound chat-completion request body (OpenAI-compatible).
type ChatRequest struct {
	Model       string    `json:"model"`       // Model identifier (e.g., "deepseek/deepseek-chat")
	Messages    []Message `json:"messages"`    // Conversation history, oldest first
	Temperature float64   `json:"temperature"` // Sampling temperature
}
