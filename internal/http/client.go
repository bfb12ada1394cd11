package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/suitecrm-client/internal/auth"
	"github.com/fivetwenty-io/suitecrm-client/internal/constants"
	"github.com/fivetwenty-io/suitecrm-client/pkg/suitecrm"
)

// Client is the SuiteCRM request pipeline. It attaches the bearer token,
// wraps request bodies in the JSON:API data member and renews the token once
// when the server answers 401.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	logger       suitecrm.Logger
	debug        bool
	userAgent    string
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger suitecrm.Logger) Option {
	return func(c *Client) {
		c.logger = suitecrm.LoggerOrNop(logger)
		c.httpClient.Logger = &leveledLogger{logger: c.logger}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig sets transport retries. Retries only cover connection
// failures; HTTP status codes are never retried here.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a pipeline for the API rooted at baseURL. A nil
// tokenManager sends unauthenticated requests.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		logger:       suitecrm.NopLogger{},
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do executes a request and decodes the JSON:API response.
//
// A 401 causes one token refresh and one retry. When the retry is rejected as
// well the session is terminated and an *suitecrm.AuthError is returned. A 400
// reporting a database failure is returned as *suitecrm.BackendError. Any
// other status is returned as a Document carrying the status code.
func (c *Client) Do(ctx context.Context, req *Request) (*suitecrm.Document, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil {
		c.logger.Info("Token rejected, refreshing", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		err = c.tokenManager.RefreshToken(ctx)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, req, body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, c.tokenManager.Terminate(suitecrm.AuthReasonTokenRevoked)
		}
	}

	return c.decode(req, resp)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*suitecrm.Document, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*suitecrm.Document, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*suitecrm.Document, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*suitecrm.Document, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

func encodeBody(body interface{}) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	data, err := json.Marshal(map[string]interface{}{"data": body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	return data, nil
}

func (c *Client) send(ctx context.Context, req *Request, body []byte) (*response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", constants.MediaTypeJSONAPI)
	httpReq.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		httpReq.Header.Set("Content-Type", constants.MediaTypeJSONAPI)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, err
		}

		httpReq.Header.Set("Authorization", constants.TokenTypeBearer+" "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   resp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(respBody),
		})
	}

	return &response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}, nil
}

func (c *Client) decode(req *Request, resp *response) (*suitecrm.Document, error) {
	if resp.StatusCode == http.StatusBadRequest && bytes.Contains(resp.Body, []byte(constants.BackendFailureMarker)) {
		c.logger.Error("Backend failure", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
		})

		return nil, &suitecrm.BackendError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("API returned error status", map[string]interface{}{
			"method": req.Method,
			"path":   req.Path,
			"status": resp.StatusCode,
		})
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &suitecrm.Document{StatusCode: resp.StatusCode}, nil
	}

	var doc suitecrm.Document

	err := json.Unmarshal(resp.Body, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w (status %d): %w", suitecrm.ErrUnexpectedResponse, resp.StatusCode, err)
	}

	doc.StatusCode = resp.StatusCode

	return &doc, nil
}

// checkRetry retries connection failures only. Status codes are handled by
// Do, which owns the single 401 retry.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err == nil {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
