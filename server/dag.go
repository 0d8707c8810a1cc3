package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/pkg/llm"
	"github.com/papercomputeco/devchat/pkg/merkle"
	"github.com/papercomputeco/devchat/pkg/transcript"
)

// PutNodesResponse reports the outcome of a bulk node upload.
type PutNodesResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// handleDAGStats returns statistics about the transcript DAG.
func (s *Server) handleDAGStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	nodes, err := s.storer.List(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list nodes"})
	}

	roots, err := s.storer.Roots(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get roots"})
	}

	leaves, err := s.storer.Leaves(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	s.mu.RLock()
	live := len(s.sessions)
	s.mu.RUnlock()

	return c.JSON(map[string]any{
		"total_nodes":   len(nodes),
		"root_count":    len(roots),
		"leaf_count":    len(leaves),
		"live_sessions": live,
	})
}

// handleGetNode returns a single node by its hash.
func (s *Server) handleGetNode(c *fiber.Ctx) error {
	node, err := s.storer.Get(c.UserContext(), c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(node)
}

// handlePutNodes ingests nodes pushed from another devchat transcript store.
// Nodes whose hash does not match their content are counted as errors.
func (s *Server) handlePutNodes(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := json.Unmarshal(c.Body(), &nodes); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	var resp PutNodesResponse
	for _, node := range nodes {
		isNew, err := s.storer.Put(c.UserContext(), node)
		switch {
		case err != nil:
			resp.Errors++
			s.logger.Warn("rejected pushed node", zap.Error(err))
		case isNew:
			resp.New++
		default:
			resp.Duplicate++
		}
	}

	s.logger.Info("nodes pushed",
		zap.Int("new", resp.New),
		zap.Int("duplicate", resp.Duplicate),
		zap.Int("errors", resp.Errors),
	)
	return c.JSON(resp)
}

// handleListHistories returns all conversation histories (one per leaf node).
func (s *Server) handleListHistories(c *fiber.Ctx) error {
	histories, err := transcript.Histories(c.UserContext(), s.storer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get leaves"})
	}

	return c.JSON(map[string]any{
		"count":     len(histories),
		"histories": histories,
	})
}

// handleGetHistory returns the conversation leading up to a given node, oldest first.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	history, err := transcript.BuildHistory(c.UserContext(), s.storer, c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "node not found"})
	}

	return c.JSON(history)
}
