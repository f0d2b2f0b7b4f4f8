// Package mock provides an in-memory kv.KV for tests.
//
// Values are copied on the way in and out, missing keys return
// kv.ErrKeyNotFound, and per-operation failures can be injected with Fail.
package mock

import (
	"github.com/tarmac-project/sam/kv"
)

// Operation names recorded in Calls and accepted by Fail.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpDelete = "DELETE"
)

// Call records an operation performed against the mock.
type Call struct {
	Op  string
	Key string
}

// Config configures the mock.
type Config struct {
	// Seed pre-populates the store.
	Seed map[string][]byte
}

// Client implements kv.KV in memory.
type Client struct {
	store    map[string][]byte
	failures map[string]error

	// Calls stores a history of operations for assertions.
	Calls []Call
}

var _ kv.KV = (*Client)(nil)

// New creates a mock store.
func New(cfg Config) *Client {
	c := &Client{
		store:    make(map[string][]byte, len(cfg.Seed)),
		failures: make(map[string]error),
	}
	for k, v := range cfg.Seed {
		c.store[k] = append([]byte(nil), v...)
	}
	return c
}

// Fail makes every future op return err. A nil err clears the failure.
func (c *Client) Fail(op string, err error) *Client {
	if err == nil {
		delete(c.failures, op)
		return c
	}
	c.failures[op] = err
	return c
}

// Count returns how many times op was called.
func (c *Client) Count(op string) int {
	n := 0
	for _, call := range c.Calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// Get implements kv.KV.
func (c *Client) Get(key string) ([]byte, error) {
	c.Calls = append(c.Calls, Call{Op: OpGet, Key: key})
	if key == "" {
		return nil, kv.ErrInvalidKey
	}
	if err := c.failures[OpGet]; err != nil {
		return nil, err
	}
	v, ok := c.store[key]
	if !ok {
		return nil, kv.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements kv.KV.
func (c *Client) Set(key string, value []byte) error {
	c.Calls = append(c.Calls, Call{Op: OpSet, Key: key})
	if key == "" {
		return kv.ErrInvalidKey
	}
	if value == nil {
		return kv.ErrInvalidValue
	}
	if err := c.failures[OpSet]; err != nil {
		return err
	}
	c.store[key] = append([]byte(nil), value...)
	return nil
}

// Delete implements kv.KV.
func (c *Client) Delete(key string) error {
	c.Calls = append(c.Calls, Call{Op: OpDelete, Key: key})
	if key == "" {
		return kv.ErrInvalidKey
	}
	if err := c.failures[OpDelete]; err != nil {
		return err
	}
	if _, ok := c.store[key]; !ok {
		return kv.ErrKeyNotFound
	}
	delete(c.store, key)
	return nil
}
