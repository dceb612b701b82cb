package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://push.helmshare.dev/v1"
	responseBodyReadLimit int64 = 4096
)

var errAPIKeyRequired = errors.New("push gateway api key is required")

// Payload is the transport shape handed to the gateway for one notification.
type Payload struct {
	Notification Body              `json:"notification"`
	Data         map[string]string `json:"data"`
	Priority     string            `json:"priority"`
}

// Body carries the user-visible title and text.
type Body struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result is the gateway acknowledgment for an accepted message.
type Result struct {
	MessageID string `json:"messageId"`
}

// Gateway is the narrow surface the dispatcher depends on.
type Gateway interface {
	Send(ctx context.Context, token string, payload Payload) (Result, error)
}

// Client talks to the push delivery gateway over HTTP. It is constructed once
// at process startup and injected; there is no package-level instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured gateway base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the per-call HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the push gateway client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

type sendRequest struct {
	To      string  `json:"to"`
	Payload Payload `json:"payload"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
	Error     string `json:"error,omitempty"`
}

// Send submits one push message. Transport failures, timeouts, and non-2xx
// gateway responses all surface as GATEWAY_ERROR coded errors.
func (c *Client) Send(ctx context.Context, token string, payload Payload) (Result, error) {
	if strings.TrimSpace(token) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "push token is required")
	}

	body, err := json.Marshal(sendRequest{To: token, Payload: payload})
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode push request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages:send", bytes.NewReader(body))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build push request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "push gateway unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "read push gateway response")
	}

	var decoded sendResponse
	if len(raw) > 0 {
		// best effort; a rejection body may not be JSON
		_ = json.Unmarshal(raw, &decoded)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return Result{}, pkgerrors.New(pkgerrors.CodeGateway, fmt.Sprintf("push gateway rejected message: status %d %s", resp.StatusCode, msg))
	}

	if decoded.MessageID == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeGateway, "push gateway returned no message id")
	}

	return Result{MessageID: decoded.MessageID}, nil
}
