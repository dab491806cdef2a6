// Package client talks to the request/response endpoints of the document
// backend: conversations, templates, generated documents and model
// configurations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/gongwen/pkg/logger"
	"github.com/papercomputeco/gongwen/pkg/transport"
	"github.com/papercomputeco/gongwen/pkg/utils"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Tokens  transport.TokenSource

	// Client defaults to an http.Client with Timeout.
	Client  *http.Client
	Timeout time.Duration

	Logger *slog.Logger
}

// Client is a bearer-authenticated JSON client for the backend.
type Client struct {
	baseURL string
	tokens  transport.TokenSource
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client.
func New(c Config) (*Client, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	httpClient := c.Client
	if httpClient == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	return &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		tokens:  c.Tokens,
		http:    httpClient,
		logger:  l,
	}, nil
}

// ListConversations returns the user's conversations, most recent first.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var out []ConversationSummary
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	var out ConversationDetail
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/conversations/"+url.PathEscape(id), nil, "", nil)
}

// ListTemplates returns one page of templates. Pages are 1-based.
func (c *Client) ListTemplates(ctx context.Context, page, pageSize int) (*TemplatePage, error) {
	var out TemplatePage
	if err := c.do(ctx, http.MethodGet, pagedPath("/api/templates", page, pageSize), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadTemplate uploads a template file read from r.
func (c *Client) UploadTemplate(ctx context.Context, name, docType, filename string, r io.Reader) (*Template, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", name); err != nil {
		return nil, err
	}
	if err := w.WriteField("doc_type", docType); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out Template
	if err := c.do(ctx, http.MethodPost, "/api/templates", &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/templates/"+url.PathEscape(id), nil, "", nil)
}

// ListDocuments returns one page of generated documents.
func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) (*DocumentPage, error) {
	var out DocumentPage
	if err := c.do(ctx, http.MethodGet, pagedPath("/api/documents", page, pageSize), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadDocument streams the .docx of a document into w and returns the
// number of bytes written.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(id)+"/download", nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("downloading document %s: %w", id, err)
	}
	return n, nil
}

// ListModelConfigs returns the configured model providers.
func (c *Client) ListModelConfigs(ctx context.Context) ([]ModelConfig, error) {
	var out []ModelConfig
	if err := c.do(ctx, http.MethodGet, "/api/model-configs", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveModelConfig creates cfg, or updates it when cfg.ID is set.
func (c *Client) SaveModelConfig(ctx context.Context, cfg ModelConfig) (*ModelConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	method, path := http.MethodPost, "/api/model-configs"
	if cfg.ID != "" {
		method, path = http.MethodPut, path+"/"+url.PathEscape(cfg.ID)
	}

	var out ModelConfig
	if err := c.do(ctx, method, path, bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteModelConfig removes a model configuration.
func (c *Client) DeleteModelConfig(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/model-configs/"+url.PathEscape(id), nil, "", nil)
}

// ActivateModelConfig makes id the configuration used for generation.
func (c *Client) ActivateModelConfig(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/model-configs/"+url.PathEscape(id)+"/activate", nil, "", nil)
}

// do sends a request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// send issues the request and turns non-2xx responses into *APIError. The
// caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if err := transport.SetAuth(ctx, req, c.tokens); err != nil {
		return nil, err
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		statusErr := transport.ReadStatusError(resp)
		return nil, &APIError{StatusCode: statusErr.StatusCode, Detail: statusErr.Detail}
	}

	return resp, nil
}

func pagedPath(path string, page, pageSize int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
