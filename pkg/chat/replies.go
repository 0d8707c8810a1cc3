package chat

// Fixed assistant texts that are not derived from any remote call.
const (
	GreetingText = "Hello! I am your AI Code Assistant. Ask me to write Python, HTML, or React code."

	// ConfigurationErrorReply replaces the reply when no credential is configured.
	ConfigurationErrorReply = "Connection error. Please check your API Key."

	// RequestErrorReply replaces the reply when the remote call failed.
	RequestErrorReply = "Something went wrong. Please try again."
)

// IsFixedReply reports whether content is one of the built-in assistant
// texts rather than something a model produced.
func IsFixedReply(content string) bool {
	switch content {
	case GreetingText, ConfigurationErrorReply, RequestErrorReply:
		return true
	}
	return false
}

// Greeting is the synthetic first entry of every conversation log.
func Greeting() Message {
	return AssistantText(GreetingText)
}
