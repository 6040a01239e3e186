// Package client talks to the taskboard JSON API. It attaches the stored
// bearer token to every request and, when the server answers 401, forgets
// the token and sends the user to the login view.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	LoginPath      = "/login"
)

// ErrUnauthorized matches errors for responses with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Navigator moves the user to another view, such as the login page.
type Navigator func(path string)

type Client struct {
	baseURL  string
	http     *http.Client
	storage  TokenStorage
	navigate Navigator
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigate = n }
}

// New builds a client for baseURL, which is resolved with ResolveBaseURL.
func New(baseURL string, storage TokenStorage, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(ResolveBaseURL(baseURL), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		storage: storage,
		navigate: func(path string) {
			log.Printf("authentication required, continue at %s", path)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends a JSON request and decodes a JSON response into out when out is
// non-nil. Transport errors, timeouts and non-2xx statuses are returned to
// the caller; a 401 additionally clears the token and navigates to login.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.storage.Remove(TokenKey); err != nil {
			log.Println("failed to clear token:", err)
		}
		c.navigate(LoginPath)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	token, err := c.storage.Get(TokenKey)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func readErrorMessage(body io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(b))
}
