package console

import (
	"fmt"

	sam "github.com/tarmac-project/sam"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const capabilityName = "logging"

// Sink receives a fully formatted line. It is the host's console.log.
type Sink func(message string)

// HostCall defines the waPC host function signature used by the leveled methods.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Client instance interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sam.RuntimeConfig

	// Sink overrides the host console import used by Log and Logf.
	Sink Sink

	// HostCall overrides the waPC host function used by the leveled methods.
	HostCall HostCall
}

// Client forwards log lines from the guest to the host.
type Client struct {
	runtime  sam.RuntimeConfig
	sink     Sink
	hostCall HostCall
}

// New creates a Client bound to the configured sink and host call.
func New(cfg Config) (*Client, error) {
	// Set default namespace if not provided
	runtime := cfg.SDKConfig
	if runtime.Namespace == "" {
		runtime.Namespace = sam.DefaultNamespace
	}

	// Fall back to the host console import
	sink := cfg.Sink
	if sink == nil {
		sink = defaultSink()
	}

	// Use a custom host call when provided
	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Client{runtime: runtime, sink: sink, hostCall: hostCall}, nil
}

// Log forwards message to the host console unchanged.
func (c *Client) Log(message string) { c.sink(message) }

// Logf formats according to a format specifier and forwards the result to Log.
func (c *Client) Logf(format string, args ...any) { c.Log(fmt.Sprintf(format, args...)) }

func (c *Client) Info(message string)  { c.emit("Info", message) }
func (c *Client) Warn(message string)  { c.emit("Warn", message) }
func (c *Client) Error(message string) { c.emit("Error", message) }
func (c *Client) Debug(message string) { c.emit("Debug", message) }
func (c *Client) Trace(message string) { c.emit("Trace", message) }

// emit is best effort; a failing host logger is not the caller's problem.
func (c *Client) emit(level string, message string) {
	_, _ = c.hostCall(c.runtime.Namespace, capabilityName, level, []byte(message))
}

var std *Client

// Default returns the package-level client, creating it on first use.
func Default() *Client {
	if std == nil {
		std, _ = New(Config{})
	}
	return std
}

// SetDefault replaces the package-level client used by Log and Logf.
// Passing nil restores a client bound to the host defaults.
func SetDefault(c *Client) { std = c }

// Log forwards message to the host console through the default client.
func Log(message string) { Default().Log(message) }

// Logf formats and forwards a line through the default client.
func Logf(format string, args ...any) { Default().Logf(format, args...) }
