package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	proto "github.com/tarmac-project/protobuf-go/sdk/http"
	sam "github.com/tarmac-project/sam"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "httpclient"
	fnCall         = "call"

	hostStatusOK       = int32(200)
	hostStatusPartial  = int32(206)
	hostStatusBadInput = int32(400)
	hostStatusMissing  = int32(404)
	hostStatusError    = int32(500)
)

// DefaultAccept lists the payloads the guest fetches: source images and
// safetensors weights.
const DefaultAccept = "image/png, image/jpeg, image/webp, image/gif, application/octet-stream"

// UserAgent identifies the guest to upstream servers.
const UserAgent = "samguest"

var (
	// ErrInvalidURL indicates a malformed or unsupported URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to create request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")
)

// Client fetches remote resources through the host.
type Client interface {
	// Get issues a GET request to the specified URL.
	Get(url string) (*Response, error)
}

// Config configures the HTTP client and its host integration.
//
// HostCall allows tests to inject a custom host function; when nil the
// client uses wapc.HostCall.
type Config struct {
	// SDKConfig provides the runtime namespace for host calls.
	SDKConfig sam.RuntimeConfig

	// InsecureSkipVerify disables TLS verification when the host supports it.
	InsecureSkipVerify bool

	// Accept overrides DefaultAccept.
	Accept string

	// HostCall overrides the waPC host function used for requests.
	HostCall func(string, string, string, []byte) ([]byte, error)
}

// Response represents an HTTP response returned by the host.
type Response struct {
	// Status is the HTTP status text (e.g., "OK").
	Status string
	// StatusCode is the numeric HTTP status code (e.g., 200).
	StatusCode int
	// Header contains response headers.
	Header http.Header
	// Body is the response payload. It is nil for empty bodies.
	Body io.ReadCloser
}

// HTTPClient implements Client using waPC host calls.
type HTTPClient struct {
	cfg      Config
	hostCall func(string, string, string, []byte) ([]byte, error)
}

var _ Client = (*HTTPClient)(nil)

// New creates a new HTTP client with the provided configuration.
func New(config Config) (*HTTPClient, error) {
	hc := &HTTPClient{cfg: config, hostCall: wapc.HostCall}

	// Set default namespace if not provided
	if hc.cfg.SDKConfig.Namespace == "" {
		hc.cfg.SDKConfig.Namespace = sam.DefaultNamespace
	}

	if hc.cfg.Accept == "" {
		hc.cfg.Accept = DefaultAccept
	}

	// Use a custom host call when provided
	if config.HostCall != nil {
		hc.hostCall = config.HostCall
	}

	return hc, nil
}

// Get fetches an image or weights file. Only http and https URLs are
// accepted; the request carries the configured Accept header.
func (c *HTTPClient) Get(urlStr string) (*Response, error) {
	u, err := url.Parse(urlStr)
	if err != nil || u == nil || u.Host == "" {
		return &Response{}, ErrInvalidURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &Response{}, ErrInvalidURL
	}

	return c.call(&proto.HTTPClient{
		Method:   http.MethodGet,
		Url:      urlStr,
		Insecure: c.cfg.InsecureSkipVerify,
		Headers: map[string]*proto.Header{
			"Accept":     {Values: []string{c.cfg.Accept}},
			"User-Agent": {Values: []string{UserAgent}},
		},
	})
}

// call marshals the request, performs the host call and converts the reply.
func (c *HTTPClient) call(req *proto.HTTPClient) (*Response, error) {
	b, err := req.MarshalVT()
	if err != nil {
		return &Response{}, errors.Join(ErrMarshalRequest, err)
	}

	resp, err := c.hostCall(c.cfg.SDKConfig.Namespace, capabilityName, fnCall, b)
	if err != nil {
		return &Response{}, errors.Join(sam.ErrHostCall, err)
	}

	var r proto.HTTPClientResponse
	if err := r.UnmarshalVT(resp); err != nil {
		return &Response{}, errors.Join(sam.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}

	status := r.GetStatus()
	if status == nil {
		return &Response{}, sam.ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case hostStatusOK, hostStatusPartial:
	case hostStatusBadInput, hostStatusMissing, hostStatusError:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return &Response{}, errors.Join(sam.ErrHostError, errors.New(detail))
	default:
		return &Response{}, errors.Join(
			sam.ErrHostResponseInvalid,
			fmt.Errorf("unexpected host status code %d", code),
		)
	}

	httpCode := int(r.GetCode())
	out := &Response{
		Status:     http.StatusText(httpCode),
		StatusCode: httpCode,
		Header:     make(http.Header),
	}

	for name, header := range r.GetHeaders() {
		out.Header[name] = header.GetValues()
	}

	if body := r.GetBody(); len(body) > 0 {
		out.Body = io.NopCloser(bytes.NewReader(body))
	}

	return out, nil
}
