package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

const (
	// GeneratePath is the backend route that streams a generation.
	GeneratePath = "/api/generate"

	// RequestIDHeader correlates client logs with backend logs.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 64 * 1024
)

// HTTPConfig configures an HTTP transport.
type HTTPConfig struct {
	// BaseURL is the backend origin, e.g. "http://localhost:8000".
	BaseURL string

	// Tokens supplies the bearer token. Optional.
	Tokens TokenSource

	// Client is the HTTP client used for requests. Defaults to a client
	// without an overall timeout since generations stream for minutes.
	Client *http.Client

	// ConnectTimeout bounds the wait for response headers. Zero disables it.
	ConnectTimeout time.Duration

	Logger *slog.Logger
}

// HTTP is the Transport speaking to the real backend.
type HTTP struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTP creates an HTTP transport.
func NewHTTP(c HTTPConfig) (*HTTP, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	client := c.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: c.ConnectTimeout,
			},
		}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &HTTP{
		config: c,
		client: client,
		logger: l,
	}, nil
}

// Generate posts the request as multipart form data and returns the event
// stream body once the backend has answered with a success status.
func (t *HTTP) Generate(ctx context.Context, req GenerateRequest) (io.ReadCloser, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.BaseURL+GeneratePath, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("User-Agent", utils.UserAgent())

	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	if err := SetAuth(ctx, httpReq, t.config.Tokens); err != nil {
		return nil, err
	}

	t.logger.Debug("sending generation request",
		"request_id", requestID,
		"doc_type", req.DocType,
		"conv_id", req.ConvID,
		"template_id", req.TemplateID,
	)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, ReadStatusError(resp)
	}

	t.logger.Debug("generation stream opened",
		"request_id", requestID,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
	)

	return resp.Body, nil
}

// SetAuth adds the bearer token from tokens to req, if any.
func SetAuth(ctx context.Context, req *http.Request, tokens TokenSource) error {
	if tokens == nil {
		return nil
	}

	token, err := tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolving token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// ReadStatusError builds a *StatusError from a non-success response. The
// detail is taken from a JSON {"detail": ...} body when present.
func ReadStatusError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(raw),
	}
}

func errorDetail(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		if len(payload.Detail) > 0 {
			var s string
			if json.Unmarshal(payload.Detail, &s) == nil {
				return s
			}
			// Validation errors carry a structured detail; keep it verbatim.
			return string(payload.Detail)
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	return string(trimmed)
}

func encodeForm(req GenerateRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct {
		name, value string
		optional    bool
	}{
		{"doc_type", req.DocType, false},
		{"user_input", req.UserInput, false},
		{"conv_id", req.ConvID, true},
		{"template_id", req.TemplateID, true},
	}
	for _, f := range fields {
		if f.optional && f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
