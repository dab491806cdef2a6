// Package mockserver is a scripted stand-in for the document backend, used
// for local development and tests.
package mockserver

import "log/slog"

// Config is the mock server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000").
	ListenAddr string

	// Script drives every /api/generate response.
	Script Script

	// Token, when set, is required as a bearer token on every request.
	Token string

	Logger *slog.Logger
}
