// Package session implements the conversation controller: a Session owns the
// message log, the draft input, the active mode and the loading flag, and
// turns every submission into exactly one user and one assistant message.
package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/completion"
)

// DefaultImageDelay is the artificial latency before an image reply appears.
const DefaultImageDelay = 1500 * time.Millisecond

// Completer answers a conversation with the assistant's next message.
type Completer interface {
	ChatWithAI(ctx context.Context, messages []chat.Message) (string, error)
}

// ImageBuilder builds an image URL for a prompt without doing any I/O.
type ImageBuilder interface {
	GenerateImage(prompt string) string
}

// Recorder persists the log after each completed exchange.
type Recorder interface {
	Record(ctx context.Context, log []chat.Message) (string, error)
}

// Options configures a Session. The zero value is valid: no image delay, no
// recording, no change hook.
type Options struct {
	// ImageDelay is waited before an image reply is appended. Zero disables it.
	ImageDelay time.Duration

	// Greeting overrides the first assistant message.
	Greeting string

	// Recorder, when set, receives the full log after every exchange.
	Recorder Recorder

	// OnChange fires after every change to the log or the loading flag. It is
	// called without the session lock held, so it may read the session.
	OnChange func(Snapshot)

	Logger *zap.Logger
}

// Outcome reports what Submit did with an input.
type Outcome int

const (
	// Ignored means the input was empty after trimming; nothing changed.
	Ignored Outcome = iota
	// Busy means another submission is pending; nothing changed.
	Busy
	// Answered means a user message and an assistant message were appended.
	Answered
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Busy:
		return "busy"
	case Answered:
		return "answered"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	Mode     chat.Mode      `json:"mode"`
	Loading  bool           `json:"loading"`
	Input    string         `json:"input,omitempty"`
	Messages []chat.Message `json:"messages"`
}

// Session is a single conversation. It is safe for concurrent use; at most one
// submission is in flight at a time.
type Session struct {
	completer Completer
	images    ImageBuilder
	opts      Options
	logger    *zap.Logger

	mu      sync.Mutex
	log     []chat.Message
	input   string
	mode    chat.Mode
	loading bool
}

// New creates a Session whose log holds only the greeting.
func New(completer Completer, images ImageBuilder, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	greeting := chat.Greeting()
	if strings.TrimSpace(opts.Greeting) != "" {
		greeting = chat.AssistantText(opts.Greeting)
	}

	return &Session{
		completer: completer,
		images:    images,
		opts:      opts,
		logger:    logger,
		log:       []chat.Message{greeting},
		mode:      chat.ModeChat,
	}
}

// Submit appends input as a user message and the reply for the current mode.
// It blocks until the reply is in the log. Remote failures become assistant
// messages; Submit itself never fails.
func (s *Session) Submit(ctx context.Context, input string) Outcome {
	if strings.TrimSpace(input) == "" {
		return Ignored
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return Busy
	}
	s.log = append(s.log, chat.UserText(input))
	s.input = ""
	s.loading = true
	mode := s.mode
	history := slices.Clone(s.log)
	s.mu.Unlock()
	s.notify()

	s.logger.Debug("submission accepted",
		zap.String("mode", string(mode)),
		zap.Int("log_length", len(history)),
	)

	reply := chat.AssistantText(chat.RequestErrorReply)
	defer func() {
		s.finish(ctx, reply)
	}()

	switch mode {
	case chat.ModeImage:
		reply = s.imageReply(ctx, input)
	default:
		reply = s.chatReply(ctx, history)
	}

	return Answered
}

// SubmitInput submits the current draft input.
func (s *Session) SubmitInput(ctx context.Context) Outcome {
	return s.Submit(ctx, s.Input())
}

func (s *Session) imageReply(ctx context.Context, prompt string) chat.Message {
	url := s.images.GenerateImage(prompt)

	if d := s.opts.ImageDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
		}
	}

	return chat.AssistantImage(url, prompt)
}

func (s *Session) chatReply(ctx context.Context, history []chat.Message) chat.Message {
	content, err := s.completer.ChatWithAI(ctx, history)
	if err == nil {
		return chat.AssistantText(content)
	}

	var cfgErr *completion.ConfigurationError
	if errors.As(err, &cfgErr) {
		s.logger.Warn("chat unavailable", zap.Error(err))
		return chat.AssistantText(chat.ConfigurationErrorReply)
	}

	s.logger.Error("chat request failed", zap.Error(err))
	return chat.AssistantText(chat.RequestErrorReply)
}

func (s *Session) finish(ctx context.Context, reply chat.Message) {
	s.mu.Lock()
	s.log = append(s.log, reply)
	s.loading = false
	log := slices.Clone(s.log)
	s.mu.Unlock()
	s.notify()

	if s.opts.Recorder == nil {
		return
	}
	if _, err := s.opts.Recorder.Record(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Warn("failed to record transcript", zap.Error(err))
	}
}

func (s *Session) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.Snapshot())
	}
}

// Messages returns a copy of the log.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// Snapshot returns a copy of the whole session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Mode:     s.mode,
		Loading:  s.loading,
		Input:    s.input,
		Messages: slices.Clone(s.log),
	}
}

// Loading reports whether a submission is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Mode returns the active mode.
func (s *Session) Mode() chat.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode changes the mode used by later submissions. A pending submission
// keeps the mode it started with.
func (s *Session) SetMode(mode chat.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

// ToggleMode switches between chat and image mode and returns the new mode.
func (s *Session) ToggleMode() chat.Mode {
	s.mu.Lock()
	s.mode = s.mode.Toggle()
	mode := s.mode
	s.mu.Unlock()
	return mode
}

// Input returns the draft input.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// SetInput replaces the draft input.
func (s *Session) SetInput(input string) {
	s.mu.Lock()
	s.input = input
	s.mu.Unlock()
}
