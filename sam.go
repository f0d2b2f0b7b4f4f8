package sam

import (
	"fmt"

	"github.com/tarmac-project/sam/segment"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

// DefaultNamespace is used when no explicit namespace is provided.
const DefaultNamespace = "tarmac"

// ImageSize is the fixed square input dimension expected by the segmentation model.
const ImageSize = segment.ImageSize

// Sam is the segmentation model. It is the same type as segment.Sam.
type Sam = segment.Sam

// handlerOperation is the waPC operation name the host invokes.
const handlerOperation = "handler"

var (
	// ErrHandlerNil is returned when the provided function handler is nil.
	ErrHandlerNil = fmt.Errorf("function handler cannot be nil")
)

// Config provides configuration options for guest initialization.
type Config struct {
	// Namespace controls the function namespace to use for host callbacks.
	// If empty, DefaultNamespace is used.
	Namespace string

	// Handler is registered as the WebAssembly entry point the host drives.
	Handler func([]byte) ([]byte, error)
}

// RuntimeConfig carries configuration shared by the capability clients.
type RuntimeConfig struct {
	// Namespace is the function namespace used to scope host interactions.
	Namespace string
}

// SDK represents the initialized guest with a registered waPC handler.
type SDK struct {
	runtime RuntimeConfig
	handler func([]byte) ([]byte, error)
}

// New initializes the guest and registers the handler with waPC.
func New(config Config) (*SDK, error) {
	// Validate Handler is not empty
	if config.Handler == nil {
		return nil, ErrHandlerNil
	}

	// Set default namespace if not provided
	cfg := RuntimeConfig{Namespace: DefaultNamespace}
	if config.Namespace != "" {
		cfg.Namespace = config.Namespace
	}

	s := &SDK{
		runtime: cfg,
		handler: config.Handler,
	}

	// Register the handler with waPC
	wapc.RegisterFunction(handlerOperation, s.handler)

	return s, nil
}

// Config returns the current runtime configuration snapshot.
func (s *SDK) Config() RuntimeConfig { return s.runtime }
