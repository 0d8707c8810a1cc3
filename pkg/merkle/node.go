// Package merkle stores conversation transcripts as a content-addressed DAG.
// Each message is a node linked to the message before it, so identical
// conversation prefixes share nodes and diverging replies branch.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Bucket is the hashable content of a transcript node.
type Bucket struct {
	Type        string `json:"type"` // Always "message" for now
	Role        string `json:"role"`
	MessageType string `json:"message_type"` // "text" or "image"
	Content     string `json:"content"`
	Prompt      string `json:"prompt,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Node represents a single content-addressed node in a Merkle DAG
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous node hash.
	// This will be nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	Bucket Bucket `json:"bucket"`
}

// hashInput is the canonical form that gets hashed.
type hashInput struct {
	Bucket Bucket `json:"bucket"`
	Parent string `json:"parent,omitempty"`
}

// NewNode creates a new node with the computed hash for the provided bucket
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{
		Bucket: bucket,
	}

	if parent != nil {
		parentHash := parent.Hash
		n.ParentHash = &parentHash
	}

	n.Hash = n.ComputeHash()
	return n
}

// ComputeHash calculates the content-addressed hash for a node
func (n *Node) ComputeHash() string {
	i := hashInput{
		Bucket: n.Bucket,
	}

	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// Struct field order makes the encoding deterministic
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify reports whether the node's hash matches its content.
func (n *Node) Verify() bool {
	return n != nil && n.Hash == n.ComputeHash()
}
