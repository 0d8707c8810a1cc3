package chat

import (
	"fmt"
	"strings"
)

// Mode selects which remote path a submission takes.
type Mode string

const (
	ModeChat  Mode = "chat"
	ModeImage Mode = "image"
)

// ParseMode converts a user supplied string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeChat:
		return ModeChat, nil
	case ModeImage:
		return ModeImage, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeChat, ModeImage)
	}
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeImage {
		return ModeChat
	}
	return ModeImage
}
