package kv

import (
	"errors"
	"fmt"

	sdkproto "github.com/tarmac-project/protobuf-go/sdk"
	proto "github.com/tarmac-project/protobuf-go/sdk/kvstore"
	sam "github.com/tarmac-project/sam"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "kvstore"
	fnGet          = "get"
	fnSet          = "set"
	fnDelete       = "delete"
)

var (
	// ErrInvalidKey indicates an empty key.
	ErrInvalidKey = errors.New("key is invalid")

	// ErrInvalidValue indicates a nil value passed to Set.
	ErrInvalidValue = errors.New("value is invalid")

	// ErrKeyNotFound is returned when the host has no value for the key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrMarshalRequest wraps failures while encoding the request payload.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")
)

// HostCall defines the waPC host function signature used by KV operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// KV is a byte-oriented key-value store held by the host.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Config controls how a Client interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sam.RuntimeConfig

	// HostCall overrides the waPC host function used for KV operations.
	HostCall HostCall
}

// Client is the kvstore capability client.
type Client struct {
	runtime  sam.RuntimeConfig
	hostCall HostCall
}

var _ KV = (*Client)(nil)

// New creates a KV client.
func New(config Config) (*Client, error) {
	// Set default namespace if not provided
	runtime := config.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sam.DefaultNamespace
	}

	// Use a custom host call when provided
	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Client{runtime: runtime, hostCall: hostCall}, nil
}

// Get returns the value stored under key.
func (c *Client) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	b, err := (&proto.KVStoreGet{Key: key}).MarshalVT()
	if err != nil {
		return nil, errors.Join(ErrMarshalRequest, err)
	}

	respBytes, err := c.hostCall(c.runtime.Namespace, capabilityName, fnGet, b)
	if err != nil {
		return nil, errors.Join(sam.ErrHostCall, err)
	}

	var resp proto.KVStoreGetResponse
	if err := resp.UnmarshalVT(respBytes); err != nil {
		return nil, errors.Join(sam.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}

	if err := validateStatus(resp.GetStatus()); err != nil {
		return nil, err
	}

	return resp.GetData(), nil
}

// Set stores value under key.
func (c *Client) Set(key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if value == nil {
		return ErrInvalidValue
	}

	b, err := (&proto.KVStoreSet{Key: key, Data: value}).MarshalVT()
	if err != nil {
		return errors.Join(ErrMarshalRequest, err)
	}

	respBytes, err := c.hostCall(c.runtime.Namespace, capabilityName, fnSet, b)
	if err != nil {
		return errors.Join(sam.ErrHostCall, err)
	}

	var resp proto.KVStoreSetResponse
	if err := resp.UnmarshalVT(respBytes); err != nil {
		return errors.Join(sam.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}

	return validateStatus(resp.GetStatus())
}

// Delete removes key.
func (c *Client) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	b, err := (&proto.KVStoreDelete{Key: key}).MarshalVT()
	if err != nil {
		return errors.Join(ErrMarshalRequest, err)
	}

	respBytes, err := c.hostCall(c.runtime.Namespace, capabilityName, fnDelete, b)
	if err != nil {
		return errors.Join(sam.ErrHostCall, err)
	}

	var resp proto.KVStoreDeleteResponse
	if err := resp.UnmarshalVT(respBytes); err != nil {
		return errors.Join(sam.ErrHostResponseInvalid, ErrUnmarshalResponse, err)
	}

	return validateStatus(resp.GetStatus())
}

// validateStatus maps the kvstore status codes. The host reports success as
// either 0 or 200.
func validateStatus(status *sdkproto.Status) error {
	if status == nil {
		return sam.ErrHostResponseInvalid
	}

	switch code := status.GetCode(); code {
	case 0, 200:
		return nil
	case 404:
		return ErrKeyNotFound
	case 400, 500:
		detail := fmt.Sprintf("host status %d", code)
		if msg := status.GetStatus(); msg != "" {
			detail = fmt.Sprintf("%s: %s", detail, msg)
		}
		return errors.Join(sam.ErrHostError, errors.New(detail))
	default:
		return errors.Join(sam.ErrHostResponseInvalid, fmt.Errorf("unexpected host status code %d", code))
	}
}
