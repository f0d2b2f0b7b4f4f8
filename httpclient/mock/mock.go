// Package mock provides an in-memory httpclient.Client for tests. It never
// touches the host; responses are scripted per URL and every call is recorded.
package mock

import (
	"bytes"
	"io"
	"net/http"

	"github.com/tarmac-project/sam/httpclient"
)

// Response describes a synthetic response.
type Response struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int
	// Body is returned as the response payload.
	Body []byte
	// Header holds headers to include in the response.
	Header http.Header
	// Error, when set, is returned instead of a response.
	Error error
}

// Config controls construction of a Client.
type Config struct {
	// Responses maps URLs to their scripted responses.
	Responses map[string]*Response

	// DefaultResponse is used for URLs without a scripted response. When nil,
	// unknown URLs get a 404.
	DefaultResponse *Response
}

// Client implements httpclient.Client.
type Client struct {
	responses map[string]*Response
	fallback  *Response

	// Calls records every URL requested, in order.
	Calls []string
}

var _ httpclient.Client = (*Client)(nil)

// New creates a mock client.
func New(cfg Config) *Client {
	c := &Client{
		responses: make(map[string]*Response, len(cfg.Responses)),
		fallback:  cfg.DefaultResponse,
	}
	for u, r := range cfg.Responses {
		c.responses[u] = r
	}
	if c.fallback == nil {
		c.fallback = &Response{StatusCode: http.StatusNotFound}
	}
	return c
}

// On scripts the response for url.
func (c *Client) On(url string, r *Response) *Client {
	c.responses[url] = r
	return c
}

// Get returns the scripted response for url.
func (c *Client) Get(url string) (*httpclient.Response, error) {
	c.Calls = append(c.Calls, url)

	r, ok := c.responses[url]
	if !ok {
		r = c.fallback
	}
	if r.Error != nil {
		return nil, r.Error
	}

	code := r.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	out := &httpclient.Response{
		Status:     http.StatusText(code),
		StatusCode: code,
		Header:     make(http.Header),
	}
	for k, v := range r.Header {
		out.Header[k] = append([]string(nil), v...)
	}
	if len(r.Body) > 0 {
		out.Body = io.NopCloser(bytes.NewReader(r.Body))
	}
	return out, nil
}
