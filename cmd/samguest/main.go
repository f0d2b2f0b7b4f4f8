// Command samguest is the WebAssembly guest that serves segmentation requests.
// Build it with TinyGo for the wasi target and load it into a waPC host.
package main

import (
	"fmt"

	sam "github.com/tarmac-project/sam"
	"github.com/tarmac-project/sam/console"
	"github.com/tarmac-project/sam/httpclient"
	"github.com/tarmac-project/sam/kv"
	"github.com/tarmac-project/sam/metrics"
	"github.com/tarmac-project/sam/segment/regiongrow"
	"github.com/tarmac-project/sam/worker"
)

func main() {
	runtime := sam.RuntimeConfig{Namespace: sam.DefaultNamespace}

	log, err := console.New(console.Config{SDKConfig: runtime})
	if err != nil {
		return
	}
	console.SetDefault(log)

	if err := run(runtime, log); err != nil {
		log.Error(fmt.Sprintf("samguest: %s", err))
	}
}

func run(runtime sam.RuntimeConfig, log *console.Client) error {
	http, err := httpclient.New(httpclient.Config{SDKConfig: runtime})
	if err != nil {
		return fmt.Errorf("creating http client: %w", err)
	}

	store, err := kv.New(kv.Config{SDKConfig: runtime})
	if err != nil {
		return fmt.Errorf("creating kv client: %w", err)
	}

	recorder, err := metrics.New(metrics.Config{SDKConfig: runtime})
	if err != nil {
		return fmt.Errorf("creating metrics recorder: %w", err)
	}

	w, err := worker.New(worker.Config{
		Loader:  regiongrow.Loader{},
		HTTP:    http,
		Cache:   store,
		Metrics: recorder,
		Console: log,
	})
	if err != nil {
		return fmt.Errorf("creating worker: %w", err)
	}

	if _, err := sam.New(sam.Config{Namespace: runtime.Namespace, Handler: w.Handle}); err != nil {
		return fmt.Errorf("registering handler: %w", err)
	}

	return nil
}
