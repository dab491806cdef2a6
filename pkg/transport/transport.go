// Package transport issues generation requests to the document backend and
// hands back the raw event-stream body.
package transport

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// GenerateRequest holds the form fields of a generation request.
type GenerateRequest struct {
	DocType    string
	UserInput  string
	ConvID     string
	TemplateID string
}

// Transport opens a generation stream. The caller must close the returned
// body. Implementations return a *StatusError for non-success responses.
type Transport interface {
	Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error)
}

// Func adapts an ordinary function to the Transport interface.
type Func func(ctx context.Context, req GenerateRequest) (io.ReadCloser, error)

// Generate calls f(ctx, req).
func (f Func) Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error) {
	return f(ctx, req)
}

// TokenSource supplies the bearer token sent with every request. An empty
// token means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns the static token.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// StatusError is returned when the backend answers with a non-success status.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
}

// Validate checks the request before it is sent.
func (r GenerateRequest) Validate() error {
	if strings.TrimSpace(r.UserInput) == "" {
		return fmt.Errorf("user input is required")
	}
	if strings.TrimSpace(r.DocType) == "" {
		return fmt.Errorf("document type is required")
	}
	return nil
}
