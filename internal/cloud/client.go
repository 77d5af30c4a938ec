// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the chat-completion client for OpenAI-compatible endpoints.
//
// CLOUD: Secure logging, single-attempt requests, typed response decoding
package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultBaseURL is the base URL of the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the model identifier sent with every request.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout bounds a whole request, including reading the body.
	DefaultTimeout = 60 * time.Second

	// MaxTokens is the completion token cap sent with every request.
	MaxTokens = 150

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	completionsPath = "/chat/completions"
)

// UserAgent is sent with every request. The CLI sets the version suffix at startup.
var UserAgent = "simplechat/dev"

// newHTTPClient builds the HTTP client used when none is supplied.
// SECURITY: TLS verification required, TLS 1.2 minimum.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: timeout,
	}
}

// ChatMessage represents a single message in the request body.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body sent to the chat completions endpoint.
type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// chatResponse is the subset of the response the client depends on.
// Only the first choice is decoded; later choices may have any shape.
type chatResponse struct {
	Choices []json.RawMessage `json:"choices"`
}

// chatChoice is one element of choices. Pointers distinguish a missing or
// null field from an empty one.
type chatChoice struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// content extracts choices[0].message.content or reports what is missing.
func (r *chatResponse) content() (string, error) {
	if len(r.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	var choice chatChoice
	if err := json.Unmarshal(r.Choices[0], &choice); err != nil {
		return "", fmt.Errorf("failed to parse choices[0]: %w", err)
	}
	if choice.Message == nil {
		return "", errors.New("choices[0].message is missing")
	}
	if choice.Message.Content == nil {
		return "", errors.New("choices[0].message.content is missing")
	}
	return *choice.Message.Content, nil
}

// Client sends single-turn completion requests.
//
// A Client holds no credential and no conversation state; it is safe for
// concurrent use once configured.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a client for the default endpoint and model.
func NewClient() *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: newHTTPClient(DefaultTimeout),
		logger:     slog.Default(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	return c
}

// WithModel sets the model identifier.
func (c *Client) WithModel(model string) *Client {
	if model = strings.TrimSpace(model); model != "" {
		c.model = model
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithRequestsPerMinute enables a client-side throttle. Zero disables it.
// Requests refused by the throttle fail with ErrRateLimited without being sent.
func (c *Client) WithRequestsPerMinute(rpm int) *Client {
	if rpm <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Model returns the model identifier sent with every request.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the full completions URL.
func (c *Client) Endpoint() string {
	return c.baseURL + completionsPath
}

// Host returns the host of the endpoint, for display.
func (c *Client) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Host
}

// Timeout returns the request timeout in effect.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Complete sends prompt as a single user turn and returns the trimmed reply.
//
// Exactly one attempt is made. Failures are returned as *CompletionError and
// match one of ErrNetwork, ErrRateLimited, ErrServer or ErrMalformedResponse.
func (c *Client) Complete(ctx context.Context, prompt, credential string) (string, error) {
	if c.limiter != nil && !c.limiter.Allow() {
		c.logger.Warn("completion throttled locally", "model", c.model)
		return "", &CompletionError{Kind: KindRateLimited, Err: errors.New("client-side request limit reached")}
	}

	body, err := json.Marshal(ChatRequest{
		Model:     c.model,
		Messages:  []ChatMessage{{Role: "user", Content: prompt}},
		MaxTokens: MaxTokens,
	})
	if err != nil {
		return "", malformedError(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", networkError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", UserAgent)

	// CLOUD: Secure logging - no headers, no body.
	c.logger.Debug("completion request",
		"method", req.Method,
		"path", req.URL.Path,
		"model", c.model,
		"key", Fingerprint(credential),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after request to prevent logging
	req.Header.Del("Authorization")

	if err != nil {
		c.logger.Warn("completion transport failure", "error", redactURLError(err), "duration", time.Since(start))
		return "", networkError(redactURLError(err))
	}
	defer resp.Body.Close()

	c.logger.Info("completion response", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the body is not surfaced.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return "", classifyStatus(resp.StatusCode)
	}

	data, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", malformedError(fmt.Errorf("failed to parse response: %w", err))
	}
	content, err := parsed.content()
	if err != nil {
		return "", malformedError(err)
	}

	return strings.TrimSpace(content), nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, networkError(fmt.Errorf("failed to read response: %w", err))
	}
	if int64(len(data)) > MaxResponseSize {
		return nil, malformedError(fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize))
	}
	return data, nil
}

// redactURLError drops the URL from transport errors; it may carry userinfo.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// Fingerprint returns a short, non-reversible identifier for a credential.
// SECURITY: Never exposes key fragments; used wherever a key must be referenced in logs.
func Fingerprint(credential string) string {
	if credential == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(credential))
	return "sha256:" + hex.EncodeToString(h[:4])
}
