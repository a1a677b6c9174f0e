// Package client opens debate streams against the debate server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/stream"
)

// DefaultURL is the endpoint of a locally running debate server.
const DefaultURL = "http://127.0.0.1:8000/debate"

// Request is the JSON body of a debate submission.
type Request struct {
	Topic    string `json:"topic"`
	NumTurns int    `json:"num_turns,omitempty"`
}

// Client submits topics to the debate server.
type Client struct {
	httpClient *http.Client
	url        string
	numTurns   int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithNumTurns sets how many times each agent speaks. Zero leaves it to the server.
func WithNumTurns(n int) Option {
	return func(c *Client) { c.numTurns = n }
}

// New creates a Client for the given endpoint. An empty url selects DefaultURL.
func New(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	// No timeout: the stream lives as long as the debate does.
	c := &Client{
		httpClient: &http.Client{},
		url:        url,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client posts to.
func (c *Client) URL() string {
	return c.url
}

// Open submits a topic and returns the event stream of the debate.
// Cancelling ctx aborts both the request and any pending read.
func (c *Client) Open(ctx context.Context, topic string) (*Stream, error) {
	body, err := json.Marshal(Request{Topic: topic, NumTurns: c.numTurns})
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("client: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	return &Stream{body: resp.Body, decoder: stream.NewDecoder(resp.Body)}, nil
}

// Stream is an open debate event stream.
type Stream struct {
	body    io.ReadCloser
	decoder *stream.Decoder
}

// Next returns the next event, io.EOF at the end of the debate, or a
// *stream.ParseError for a malformed record.
func (s *Stream) Next() (core.Event, error) {
	return s.decoder.Next()
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
