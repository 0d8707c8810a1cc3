// Package render turns conversation messages into terminal output.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/papercomputeco/devchat/pkg/chat"
)

// Renderer renders markdown replies with glamour. Rendering failures fall
// back to the raw text.
type Renderer struct {
	md *glamour.TermRenderer
}

// Options configures a Renderer.
type Options struct {
	// Width is the word-wrap width; zero uses 80.
	Width int
	// Style is a glamour style name ("dark", "light", "notty", ...). Empty
	// picks one from the terminal background.
	Style string
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}

	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Markdown renders a markdown document.
func (r *Renderer) Markdown(content string) string {
	if r == nil || r.md == nil {
		return content
	}
	out, err := r.md.Render(content)
	if err != nil {
		return content
	}
	return out
}

// Message renders a single log message.
func (r *Renderer) Message(msg chat.Message) string {
	if msg.IsImage() {
		return Image(msg)
	}
	if msg.Role == chat.RoleUser {
		return msg.Content
	}
	return strings.TrimRight(r.Markdown(msg.Content), "\n")
}

// Image renders an image message as a caption and its URL.
func Image(msg chat.Message) string {
	return fmt.Sprintf("[image] %s\n%s", msg.Prompt, msg.Content)
}
