// Package llm provides the wire representations of chat-completion requests
// and the JSON error envelope served by the devchat API.
package llm

// ErrorResponse represents an error returned by the devchat HTTP API.
type ErrorResponse struct {
	Error string `json:"error"`
}
