package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Message is a single chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError describes a failed completion request.
type APIError struct {
	Status  int                    `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Timeout bool                   `json:"timeout"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Timeout {
		return "request timeout"
	}
	return fmt.Sprintf("openrouter: status %d: %s", e.Status, e.Message)
}

// Client calls an OpenRouter-compatible chat completion endpoint.
type Client struct {
	baseURL string
	referer string
	title   string
	timeout time.Duration
	http    *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAttribution sets the HTTP-Referer and X-Title headers OpenRouter uses
// for request attribution.
func WithAttribution(referer, title string) Option {
	return func(c *Client) {
		c.referer = referer
		c.title = title
	}
}

// NewClient builds a chat-completion client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: 30 * time.Second,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat completion request and returns the assistant content.
// Non-2xx responses and timeouts surface as *APIError.
func (c *Client) Complete(ctx context.Context, apiKey, model string, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   1000,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", &APIError{Timeout: true, Message: "Request timeout"}
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
		var details struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&details); decodeErr == nil && details.Error.Message != "" {
			apiErr.Message = details.Error.Message
		}
		return "", apiErr
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("invalid response format from OpenRouter API")
	}
	content := parsed.Choices[0].Message.Content
	if content == "" {
		return "No response content received", nil
	}
	return content, nil
}

// ValidateKey performs a format-only check on an API key. It does not verify
// the key against the provider.
func ValidateKey(key string) bool {
	if len(key) < 10 {
		return false
	}
	return key[:3] == "sk-"
}

// HumanizeError maps a request failure to a one-line message that references
// the 1-based index of the key that was in use. Used for operator-facing
// status lines only, never for control flow.
func HumanizeError(err error, keyIndex int) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Timeout:
			return fmt.Sprintf("Key #%d request timeout", keyIndex+1)
		case apiErr.Status == http.StatusUnauthorized:
			return fmt.Sprintf("Key #%d authentication failed", keyIndex+1)
		case apiErr.Status == http.StatusForbidden:
			return fmt.Sprintf("Key #%d access denied", keyIndex+1)
		case apiErr.Status == http.StatusTooManyRequests:
			return fmt.Sprintf("Key #%d rate limited", keyIndex+1)
		case apiErr.Status == http.StatusInternalServerError:
			return fmt.Sprintf("Key #%d server error", keyIndex+1)
		default:
			return fmt.Sprintf("Key #%d failed: %s", keyIndex+1, apiErr.Message)
		}
	}
	if err != nil {
		return fmt.Sprintf("Key #%d failed: %s", keyIndex+1, err.Error())
	}
	return fmt.Sprintf("Key #%d failed: Unknown error", keyIndex+1)
}
