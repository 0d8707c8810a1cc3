package merkle

import (
	"context"
	"sync"
)

// MemoryStorer is an in-memory Storer. Its contents live as long as the process.
type MemoryStorer struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	order    []string
	children map[string]int
}

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes:    make(map[string]*Node),
		children: make(map[string]int),
	}
}

func (s *MemoryStorer) Put(_ context.Context, node *Node) (bool, error) {
	if err := validate(node); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Hash]; ok {
		return false, nil
	}

	s.nodes[node.Hash] = node
	s.order = append(s.order, node.Hash)
	if node.ParentHash != nil {
		s.children[*node.ParentHash]++
	}
	return true, nil
}

func (s *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	return node, nil
}

func (s *MemoryStorer) Has(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[hash]
	return ok, nil
}

func (s *MemoryStorer) GetByParent(_ context.Context, parentHash *string) ([]*Node, error) {
	return s.filter(func(n *Node) bool {
		if parentHash == nil {
			return n.ParentHash == nil
		}
		return n.ParentHash != nil && *n.ParentHash == *parentHash
	}), nil
}

func (s *MemoryStorer) List(_ context.Context) ([]*Node, error) {
	return s.filter(func(*Node) bool { return true }), nil
}

func (s *MemoryStorer) Roots(ctx context.Context) ([]*Node, error) {
	return s.GetByParent(ctx, nil)
}

func (s *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0)
	for _, hash := range s.order {
		if s.children[hash] == 0 {
			out = append(out, s.nodes[hash])
		}
	}
	return out, nil
}

func (s *MemoryStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return ancestry(ctx, s.Get, hash)
}

func (s *MemoryStorer) Descendants(ctx context.Context, hash string) ([]*Node, error) {
	path, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	return reversed(path), nil
}

func (s *MemoryStorer) Depth(ctx context.Context, hash string) (int, error) {
	path, err := s.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

func (s *MemoryStorer) Close() error {
	return nil
}

func (s *MemoryStorer) filter(keep func(*Node) bool) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0)
	for _, hash := range s.order {
		if n := s.nodes[hash]; keep(n) {
			out = append(out, n)
		}
	}
	return out
}

var _ Storer = (*MemoryStorer)(nil)
