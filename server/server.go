// Package server exposes conversation sessions over an HTTP API for a browser
// front-end, and records every exchange in a transcript Merkle DAG.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/papercomputeco/devchat/pkg/chat"
	"github.com/papercomputeco/devchat/pkg/codeblock"
	"github.com/papercomputeco/devchat/pkg/llm"
	"github.com/papercomputeco/devchat/pkg/merkle"
	"github.com/papercomputeco/devchat/pkg/session"
	"github.com/papercomputeco/devchat/pkg/transcript"
)

// Server owns the live sessions. Sessions exist until deleted or until the
// process exits; only their transcripts are persisted.
type Server struct {
	config    Config
	storer    merkle.Storer
	recorder  *transcript.Recorder
	completer session.Completer
	images    session.ImageBuilder
	logger    *zap.Logger
	app       *fiber.App

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	session *session.Session
	limiter *rate.Limiter // nil when unlimited
}

// SessionResponse is the JSON view of a session.
type SessionResponse struct {
	ID string `json:"id"`
	session.Snapshot
}

type submitRequest struct {
	Input string `json:"input"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type downloadRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// New creates a Server.
func New(config Config, completer session.Completer, images session.ImageBuilder, logger *zap.Logger) (*Server, error) {
	var storer merkle.Storer
	var err error

	if config.DBPath != "" {
		storer, err = merkle.NewSQLiteStorer(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		logger.Info("using SQLite transcript storage", zap.String("path", config.DBPath))
	} else {
		storer = merkle.NewMemoryStorer()
		logger.Info("using in-memory transcript storage")
	}

	return NewWithStorer(config, storer, completer, images, logger), nil
}

// NewWithStorer creates a Server that records transcripts into storer.
func NewWithStorer(config Config, storer merkle.Storer, completer session.Completer, images session.ImageBuilder, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		storer:    storer,
		recorder:  transcript.NewRecorder(storer, config.Model, logger),
		completer: completer,
		images:    images,
		logger:    logger,
		app:       app,
		sessions:  make(map[string]*liveSession),
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	api := app.Group("/api")
	api.Post("/sessions", s.handleCreateSession)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleDeleteSession)
	api.Put("/sessions/:id/mode", s.handleSetMode)
	api.Post("/sessions/:id/messages", s.handleSubmit)
	api.Get("/images", s.handleImage)
	api.Get("/code/extension/:language", s.handleExtension)
	api.Post("/code/download", s.handleDownload)

	// Transcript DAG endpoints
	app.Get("/dag/stats", s.handleDAGStats)
	app.Get("/dag/node/:hash", s.handleGetNode)
	app.Post("/dag/nodes", s.handlePutNodes)
	app.Get("/dag/history", s.handleListHistories)
	app.Get("/dag/history/:hash", s.handleGetHistory)

	return s
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting devchat server", zap.String("listen", s.config.ListenAddr))
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting devchat server", zap.String("listen", ln.Addr().String()))
	return s.app.Listener(ln)
}

// Close stops the server and releases the transcript store.
func (s *Server) Close() error {
	if err := s.app.Shutdown(); err != nil {
		s.logger.Warn("server shutdown failed", zap.Error(err))
	}
	return s.storer.Close()
}

func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	id := uuid.NewString()
	live := &liveSession{
		session: session.New(s.completer, s.images, session.Options{
			ImageDelay: s.config.ImageDelay,
			Greeting:   s.config.Greeting,
			Recorder:   s.recorder,
			Logger:     s.logger.With(zap.String("session", id)),
		}),
	}
	if s.config.RateLimit > 0 {
		burst := max(s.config.RateBurst, 1)
		live.limiter = rate.NewLimiter(rate.Limit(s.config.RateLimit), burst)
	}

	s.mu.Lock()
	s.sessions[id] = live
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session", id))
	return c.Status(fiber.StatusCreated).JSON(SessionResponse{ID: id, Snapshot: live.session.Snapshot()})
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	id, live, ok := s.lookup(c)
	if !ok {
		return sessionNotFound(c)
	}
	return c.JSON(SessionResponse{ID: id, Snapshot: live.session.Snapshot()})
}

func (s *Server) handleDeleteSession(c *fiber.Ctx) error {
	id := c.Params("id")

	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return sessionNotFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSetMode(c *fiber.Ctx) error {
	id, live, ok := s.lookup(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req modeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	mode, err := chat.ParseMode(req.Mode)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	live.session.SetMode(mode)
	return c.JSON(SessionResponse{ID: id, Snapshot: live.session.Snapshot()})
}

// handleSubmit runs one submission to completion and returns the new state.
func (s *Server) handleSubmit(c *fiber.Ctx) error {
	id, live, ok := s.lookup(c)
	if !ok {
		return sessionNotFound(c)
	}

	var req submitRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Input) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "input is empty"})
	}

	if live.limiter != nil && !live.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(llm.ErrorResponse{Error: "too many messages, slow down"})
	}

	switch live.session.Submit(c.UserContext(), req.Input) {
	case session.Busy:
		return c.Status(fiber.StatusConflict).JSON(llm.ErrorResponse{Error: "a message is already pending"})
	case session.Ignored:
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "input is empty"})
	}

	return c.JSON(SessionResponse{ID: id, Snapshot: live.session.Snapshot()})
}

func (s *Server) handleImage(c *fiber.Ctx) error {
	prompt := c.Query("prompt")
	if strings.TrimSpace(prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "prompt parameter required"})
	}
	return c.JSON(map[string]string{"url": s.images.GenerateImage(prompt)})
}

func (s *Server) handleExtension(c *fiber.Ctx) error {
	block := codeblock.New(c.Params("language"), "")
	return c.JSON(map[string]string{
		"language":  block.Language,
		"extension": block.Extension(),
		"filename":  block.Filename(),
	})
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	var req downloadRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	block := codeblock.New(req.Language, req.Code)
	c.Attachment(block.Filename())
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.SendString(block.Code)
}

func (s *Server) lookup(c *fiber.Ctx) (string, *liveSession, bool) {
	id := c.Params("id")

	s.mu.RLock()
	live, ok := s.sessions[id]
	s.mu.RUnlock()

	return id, live, ok
}

func sessionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "session not found"})
}
