package metrics

import (
	"errors"
	"regexp"
	"time"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	sam "github.com/tarmac-project/sam"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnHistogram    = "histogram"

	// DefaultPrefix is prepended to every metric name when Config.Prefix is empty.
	DefaultPrefix = "sam"
)

// Metric name suffixes; the full name is prefix + "_" + suffix.
const (
	ModelLoads         = "model_loads_total"
	EmbeddingsComputed = "embeddings_computed_total"
	EmbeddingCacheHits = "embedding_cache_hits_total"
	RequestFailures    = "request_failures_total"
	MaskDecodeSeconds  = "mask_decode_seconds"
)

var (
	// ErrInvalidMetricName indicates a prefix that does not produce valid metric names.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	// isMetricNameValid matches the names the Tarmac host accepts.
	isMetricNameValid = regexp.MustCompile(`^[a-zA-Z0-9_:][a-zA-Z0-9_:]*$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Recorder interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sam.RuntimeConfig

	// Prefix overrides DefaultPrefix.
	Prefix string

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall
}

// Recorder emits the guest's segmentation metrics to the host. Every method
// is best effort: encoding or host failures are dropped.
type Recorder struct {
	namespace string
	prefix    string
	hostCall  HostCall
}

// New creates a Recorder.
func New(config Config) (*Recorder, error) {
	// Set default namespace if not provided
	namespace := config.SDKConfig.Namespace
	if namespace == "" {
		namespace = sam.DefaultNamespace
	}

	// Validate the prefix since it becomes part of every metric name
	prefix := config.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !isMetricNameValid.MatchString(prefix) {
		return nil, ErrInvalidMetricName
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &Recorder{namespace: namespace, prefix: prefix, hostCall: hostCall}, nil
}

// Name returns the full metric name for suffix.
func (r *Recorder) Name(suffix string) string { return r.prefix + "_" + suffix }

// ModelLoaded counts a backend being loaded.
func (r *Recorder) ModelLoaded() { r.inc(ModelLoads) }

// EmbeddingComputed counts embeddings computed from a source image.
func (r *Recorder) EmbeddingComputed() { r.inc(EmbeddingsComputed) }

// EmbeddingCacheHit counts embeddings recalled from the host cache.
func (r *Recorder) EmbeddingCacheHit() { r.inc(EmbeddingCacheHits) }

// RequestFailed counts a handler invocation that returned an error.
func (r *Recorder) RequestFailed() { r.inc(RequestFailures) }

// MaskDecoded records how long producing a mask took.
func (r *Recorder) MaskDecoded(d time.Duration) { r.observe(MaskDecodeSeconds, d.Seconds()) }

func (r *Recorder) inc(suffix string) {
	payload, err := (&proto.MetricsCounter{Name: r.Name(suffix)}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnCounter, payload)
}

func (r *Recorder) observe(suffix string, value float64) {
	payload, err := (&proto.MetricsHistogram{Name: r.Name(suffix), Value: value}).MarshalVT()
	if err != nil {
		return
	}
	_, _ = r.hostCall(r.namespace, capabilityName, fnHistogram, payload)
}
