// Package transcript records conversation logs into a merkle.Storer and
// reads them back as chronological histories.
package transcript

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/merkle"
)

// Recorder stores conversation logs as chains of DAG nodes. Identical
// prefixes deduplicate, so recording the growing log after every exchange
// only adds the new messages.
type Recorder struct {
	storer merkle.Storer
	model  string
	logger *zap.Logger
}

// NewRecorder creates a Recorder. model is stored alongside every message.
func NewRecorder(storer merkle.Storer, model string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{storer: storer, model: model, logger: logger}
}

// Record stores every message of log and returns the hash of the last one.
func (r *Recorder) Record(ctx context.Context, log []chat.Message) (string, error) {
	var parent *merkle.Node
	added := 0

	for i, msg := range log {
		bucket := BucketFor(msg, r.model)
		if i == 0 {
			// The log always opens with the greeting, which may be customised.
			bucket.Model = ""
		}
		node := merkle.NewNode(bucket, parent)

		isNew, err := r.storer.Put(ctx, node)
		if err != nil {
			return "", fmt.Errorf("storing %s message node: %w", msg.Role, err)
		}
		if isNew {
			added++
			r.logger.Debug("stored message in DAG",
				zap.String("hash", truncate(node.Hash, 16)),
				zap.String("role", string(msg.Role)),
				zap.String("content_preview", truncate(msg.Content, 50)),
			)
		}
		parent = node
	}

	if parent == nil {
		return "", nil
	}

	r.logger.Debug("conversation recorded",
		zap.String("head_hash", truncate(parent.Hash, 16)),
		zap.Int("new_nodes", added),
	)
	return parent.Hash, nil
}

// BucketFor converts a log message into DAG node content.
func BucketFor(msg chat.Message, model string) merkle.Bucket {
	b := merkle.Bucket{
		Type:        "message",
		Role:        string(msg.Role),
		MessageType: string(msg.Type),
		Content:     msg.Content,
		Prompt:      msg.Prompt,
	}
	// Only model replies are attributed to a model.
	if msg.Role == chat.RoleAssistant && msg.Type == chat.TypeText && !chat.IsFixedReply(msg.Content) {
		b.Model = model
	}
	return b
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
