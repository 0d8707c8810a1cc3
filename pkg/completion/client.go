// Package completion is the client for the remote chat-completion endpoint.
package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/llm"
)

const (
	DefaultAPIURL  = "https://openrouter.ai/api/v1"
	DefaultModel   = "deepseek/deepseek-chat"
	DefaultReferer = "https://your-site.com"
	DefaultTitle   = "Premium AI Chat"
	DefaultTimeout = 60 * time.Second

	// Temperature is fixed for every request.
	Temperature = 0.7

	imageInstructionPrefix = "Generate an image description for: "
)

// Config configures the chat-completion client.
type Config struct {
	APIKey  string
	APIURL  string
	Model   string
	Referer string // Sent as HTTP-Referer
	Title   string // Sent as X-Title
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.APIURL) == "" {
		c.APIURL = DefaultAPIURL
	}
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.Referer == "" {
		c.Referer = DefaultReferer
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client sends conversations to an OpenAI-compatible chat-completion endpoint
// (OpenRouter by default). Both ConfigurationError and RequestError are
// returned to the caller; converting them into user-visible text is the
// caller's job.
type Client struct {
	mu         sync.RWMutex
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Client. A missing credential is not an error here so that
// image mode keeps working; ChatWithAI rejects it instead.
func New(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// SetAPIKey replaces the credential used by subsequent calls.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.APIKey = strings.TrimSpace(key)
}

// HasCredential reports whether a credential is configured.
func (c *Client) HasCredential() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strings.TrimSpace(c.config.APIKey) != ""
}

// ChatWithAI sends the conversation and returns the first completion choice's text.
func (c *Client) ChatWithAI(ctx context.Context, messages []chat.Message) (string, error) {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	if strings.TrimSpace(config.APIKey) == "" {
		return "", &ConfigurationError{Reason: "no API key configured"}
	}

	req := BuildRequest(config.Model, messages)

	client := openai.NewClient(
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(config.APIURL),
		option.WithHeader("HTTP-Referer", config.Referer),
		option.WithHeader("X-Title", config.Title),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)

	c.logger.Debug("sending chat completion",
		zap.String("url", config.APIURL),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
	)

	start := time.Now()
	resp, err := client.Chat.Completions.New(ctx, toParams(req))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.Error("chat completion rejected",
				zap.Int("status", apiErr.StatusCode),
				zap.Error(err),
			)
			return "", &RequestError{StatusCode: apiErr.StatusCode, Err: err}
		}
		c.logger.Error("chat completion failed", zap.Error(err))
		return "", &RequestError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &RequestError{StatusCode: http.StatusOK, Err: errors.New("response contained no choices")}
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("received chat completion",
		zap.String("model", resp.Model),
		zap.String("content_preview", truncate(content, 100)),
		zap.Duration("duration", time.Since(start)),
	)

	return content, nil
}

// BuildRequest shapes the conversation into the outbound request body.
func BuildRequest(model string, messages []chat.Message) llm.ChatRequest {
	return llm.ChatRequest{
		Model:       model,
		Messages:    ToWire(messages),
		Temperature: Temperature,
	}
}

// ToWire converts log messages into text-only wire messages. Image messages
// become an instruction referencing their prompt so the model never receives
// image payloads.
func ToWire(messages []chat.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		content := msg.Content
		if msg.IsImage() {
			subject := msg.Prompt
			if subject == "" {
				subject = msg.Content
			}
			content = imageInstructionPrefix + subject
		}
		out = append(out, llm.Message{Role: string(msg.Role), Content: content})
	}
	return out
}

func toParams(req llm.ChatRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch chat.Role(msg.Role) {
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
