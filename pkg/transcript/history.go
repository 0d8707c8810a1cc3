package transcript

import (
	"context"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/merkle"
)

// History contains the conversation leading up to a given node.
type History struct {
	// Messages in chronological order (oldest first, up to and including the requested node)
	Messages []HistoryMessage `json:"messages"`
	// HeadHash is the hash of the node that was requested
	HeadHash string `json:"head_hash"`
	// Depth is the number of messages in the history
	Depth int `json:"depth"`
}

// HistoryMessage is a message in a History.
type HistoryMessage struct {
	Hash       string    `json:"hash"`
	ParentHash *string   `json:"parent_hash,omitempty"`
	Role       chat.Role `json:"role"`
	Type       chat.Type `json:"type"`
	Content    string    `json:"content"`
	Prompt     string    `json:"prompt,omitempty"`
	Model      string    `json:"model,omitempty"`
}

// Message converts the history entry back into a log message.
func (m HistoryMessage) Message() chat.Message {
	return chat.Message{Role: m.Role, Type: m.Type, Content: m.Content, Prompt: m.Prompt}
}

// BuildHistory reads the chain ending at hash.
func BuildHistory(ctx context.Context, storer merkle.Storer, hash string) (*History, error) {
	path, err := storer.Descendants(ctx, hash)
	if err != nil {
		return nil, err
	}

	messages := make([]HistoryMessage, 0, len(path))
	for _, node := range path {
		messages = append(messages, HistoryMessage{
			Hash:       node.Hash,
			ParentHash: node.ParentHash,
			Role:       chat.Role(node.Bucket.Role),
			Type:       chat.Type(node.Bucket.MessageType),
			Content:    node.Bucket.Content,
			Prompt:     node.Bucket.Prompt,
			Model:      node.Bucket.Model,
		})
	}

	return &History{
		Messages: messages,
		HeadHash: hash,
		Depth:    len(messages),
	}, nil
}

// Histories builds one History per leaf, skipping leaves whose chain is broken.
func Histories(ctx context.Context, storer merkle.Storer) ([]History, error) {
	leaves, err := storer.Leaves(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]History, 0, len(leaves))
	for _, leaf := range leaves {
		h, err := BuildHistory(ctx, storer, leaf.Hash)
		if err != nil {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}
