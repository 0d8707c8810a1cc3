package server

import "time"

// Config is the HTTP API server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// DBPath is the path to the transcript SQLite database.
	// Use ":memory:" for an in-memory database, or empty for in-memory.
	DBPath string

	// Model is recorded alongside assistant replies in transcripts.
	Model string

	// ImageDelay is the artificial latency of image replies.
	ImageDelay time.Duration

	// Greeting overrides the first assistant message of new sessions.
	Greeting string

	// RateLimit is the sustained submissions per second allowed per session;
	// zero disables limiting.
	RateLimit float64
	RateBurst int
}
