package codeblock

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
)

// AckWindow is how long Copied reports true after a copy.
const AckWindow = 2 * time.Second

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Copier copies blocks to a clipboard and remembers when it last did so, so
// front-ends can show a transient "copied" acknowledgement.
type Copier struct {
	clipboard Clipboard
	now       func() time.Time

	mu       sync.Mutex
	copiedAt time.Time
}

// CopierOption configures a Copier.
type CopierOption func(*Copier)

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) CopierOption {
	return func(cp *Copier) {
		cp.clipboard = c
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CopierOption {
	return func(cp *Copier) {
		cp.now = now
	}
}

// NewCopier creates a Copier using the system clipboard.
func NewCopier(opts ...CopierOption) *Copier {
	c := &Copier{
		clipboard: systemClipboard{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy writes the block's code to the clipboard.
func (c *Copier) Copy(b Block) error {
	if err := c.clipboard.WriteAll(b.Code); err != nil {
		return fmt.Errorf("copying code to clipboard: %w", err)
	}

	c.mu.Lock()
	c.copiedAt = c.now()
	c.mu.Unlock()
	return nil
}

// Copied reports whether a copy happened within the last AckWindow.
func (c *Copier) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.copiedAt.IsZero() && c.now().Sub(c.copiedAt) < AckWindow
}
