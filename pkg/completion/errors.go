package completion

import (
	"fmt"
	"net/http"
)

// ConfigurationError is returned when the client cannot make a request
// because it is misconfigured, e.g. no credential is set. It is never the
// result of a network call.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "completion client misconfigured: " + e.Reason
}

// RequestError is returned when the chat-completion endpoint could not be
// reached, answered with a non-success status, or sent an unusable body.
// StatusCode is zero for transport failures.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("chat completion request failed: %v", e.Err)
	}

	return fmt.Sprintf("chat completion request failed (%d %s): %v",
		e.StatusCode, http.StatusText(e.StatusCode), e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
