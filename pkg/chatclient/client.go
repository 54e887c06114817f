// Package chatclient is a client for the paglachat API. It is intended to be
// imported by golang-based callers (the guest REPL, cmdline tools) that need
// to submit turns without speaking HTTP themselves.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/paglaai/paglachat/pkg/chatserver"
)

const DefaultServerURL = "http://localhost:8080"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option is a functional option for configuring the client
type Option func(*Client)

// WithServerURL sets the server URL for the client
func WithServerURL(url string) Option {
	return func(c *Client) {
		c.BaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = httpClient
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		BaseURL: DefaultServerURL,
		HTTPClient: &http.Client{
			// Completion calls ride on this request.
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// SendMessage submits one turn. A non-2xx response with an error body is
// returned as an error carrying the server's user-facing message.
func (c *Client) SendMessage(ctx context.Context, request chatserver.SendChatRequest) (*chatserver.SendChatResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/chat/send", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read response")
	}

	var response chatserver.SendChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrapf(err, "could not parse response (status %d)", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		if response.Error != "" {
			return nil, errors.New(response.Error)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return &response, nil
}
