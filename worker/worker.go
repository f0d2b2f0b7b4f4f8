package worker

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarmac-project/sam/console"
	"github.com/tarmac-project/sam/httpclient"
	"github.com/tarmac-project/sam/kv"
	"github.com/tarmac-project/sam/segment"
)

// Reply statuses, matching what the browser front end waits for.
const (
	StatusCompleteEmbedding = "complete-embedding"
	StatusComplete          = "complete"
)

var (
	// ErrNoLoader is returned by New when Config.Loader is nil.
	ErrNoLoader = errors.New("model loader is required")

	// ErrNoHTTPClient is returned by New when Config.HTTP is nil.
	ErrNoHTTPClient = errors.New("http client is required")

	// ErrInvalidRequest indicates a payload that is not a valid request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingImage indicates a request without an image URL.
	ErrMissingImage = errors.New("imageURL is required")

	// ErrFetch wraps failures while downloading weights or images.
	ErrFetch = errors.New("failed to fetch resource")

	// ErrLoadModel wraps failures reported by the loader.
	ErrLoadModel = errors.New("failed to load model")
)

// Request is the payload the host sends for every segmentation step.
// Without points the worker only prepares the image embeddings.
type Request struct {
	ModelURL string          `json:"modelURL"`
	ModelID  string          `json:"modelID"`
	ImageURL string          `json:"imageURL"`
	Points   []segment.Point `json:"points,omitempty"`
}

// Response is the handler's reply.
type Response struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Output  *Output `json:"output,omitempty"`
}

// Output carries the rendered mask.
type Output struct {
	MaskURL string `json:"maskURL"`
}

// Recorder receives the worker's metrics. *metrics.Recorder satisfies it.
type Recorder interface {
	ModelLoaded()
	EmbeddingComputed()
	EmbeddingCacheHit()
	RequestFailed()
	MaskDecoded(time.Duration)
}

// Config wires the worker to its collaborators.
type Config struct {
	// Loader builds the inference backend for a catalog model. Required.
	Loader segment.Loader

	// HTTP fetches weights and source images. Required.
	HTTP httpclient.Client

	// Cache stores embeddings across guest instances. Optional.
	Cache kv.KV

	// Metrics records worker events. Optional.
	Metrics Recorder

	// Console receives status lines. Defaults to console.Default().
	Console *console.Client
}

// Worker serves segmentation requests. It keeps the current model and the
// embeddings of the last image so follow-up prompts on the same image only
// run the mask decoder. A Worker is not safe for concurrent use; the guest
// runtime calls it from a single thread.
type Worker struct {
	loader  segment.Loader
	http    httpclient.Client
	cache   kv.KV
	metrics Recorder
	console *console.Client

	model      *segment.Sam
	modelURL   string
	imageURL   string
	embeddings *segment.Embeddings
}

// New creates a Worker.
func New(cfg Config) (*Worker, error) {
	if cfg.Loader == nil {
		return nil, ErrNoLoader
	}
	if cfg.HTTP == nil {
		return nil, ErrNoHTTPClient
	}

	w := &Worker{
		loader:  cfg.Loader,
		http:    cfg.HTTP,
		cache:   cfg.Cache,
		metrics: cfg.Metrics,
		console: cfg.Console,
	}
	if w.metrics == nil {
		w.metrics = nopRecorder{}
	}
	if w.console == nil {
		w.console = console.Default()
	}
	return w, nil
}

// Handle is the waPC handler: it decodes a JSON Request and returns a JSON Response.
func (w *Worker) Handle(payload []byte) ([]byte, error) {
	resp, err := w.handle(payload)
	if err != nil {
		w.metrics.RequestFailed()
		w.console.Error(err.Error())
		return nil, err
	}
	return json.Marshal(resp)
}

func (w *Worker) handle(payload []byte) (*Response, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	if req.ImageURL == "" {
		return nil, ErrMissingImage
	}

	spec, err := segment.Lookup(req.ModelID)
	if err != nil {
		return nil, err
	}

	if err := w.loadModel(spec, req.ModelURL); err != nil {
		return nil, err
	}

	emb, err := w.embeddingsFor(spec, req.ImageURL)
	if err != nil {
		return nil, err
	}

	if len(req.Points) == 0 {
		return &Response{Status: StatusCompleteEmbedding, Message: "Embeddings computed"}, nil
	}

	w.console.Logf("segmenting with %d points", len(req.Points))
	start := time.Now()
	mask, err := w.model.Segment(emb, req.Points)
	if err != nil {
		return nil, err
	}
	w.metrics.MaskDecoded(time.Since(start))

	maskURL, err := segment.MaskDataURL(mask)
	if err != nil {
		return nil, fmt.Errorf("encoding mask: %w", err)
	}

	return &Response{
		Status:  StatusComplete,
		Message: "Segmentation complete",
		Output:  &Output{MaskURL: maskURL},
	}, nil
}

// loadModel swaps the backend when the requested model differs from the
// current one. Swapping drops the current embeddings.
func (w *Worker) loadModel(spec segment.ModelSpec, modelURL string) error {
	if modelURL == "" {
		modelURL = spec.URL()
	}
	if w.model != nil && w.model.Model().ID == spec.ID && w.modelURL == modelURL {
		return nil
	}

	w.console.Logf("loading model %s", spec.ID)

	var weights []byte
	if w.loader.NeedsWeights() {
		var err error
		weights, err = w.fetch(modelURL)
		if err != nil {
			return err
		}
		w.console.Logf("loaded %d bytes of weights from %s", len(weights), modelURL)
	}

	backend, err := w.loader.Load(spec, weights)
	if err != nil {
		return errors.Join(ErrLoadModel, err)
	}

	m, err := segment.New(spec, backend)
	if err != nil {
		return errors.Join(ErrLoadModel, err)
	}

	w.model = m
	w.modelURL = modelURL
	w.imageURL = ""
	w.embeddings = nil
	w.metrics.ModelLoaded()
	w.console.Logf("model %s ready", spec.ID)
	return nil
}

// embeddingsFor returns the embeddings for imageURL from memory, the host
// cache, or by computing them. Cache errors only cost a recomputation.
func (w *Worker) embeddingsFor(spec segment.ModelSpec, imageURL string) (*segment.Embeddings, error) {
	if w.embeddings != nil && w.imageURL == imageURL {
		return w.embeddings, nil
	}

	key := cacheKey(spec.ID, imageURL)
	if e, ok := w.cached(key); ok {
		w.metrics.EmbeddingCacheHit()
		w.console.Logf("embeddings for %s restored from cache", imageURL)
		w.imageURL, w.embeddings = imageURL, e
		return e, nil
	}

	w.console.Logf("computing embeddings for %s", imageURL)

	data, err := w.fetch(imageURL)
	if err != nil {
		return nil, err
	}

	img, err := segment.DecodeImage(data)
	if err != nil {
		return nil, err
	}

	e, err := w.model.Embed(img)
	if err != nil {
		return nil, err
	}
	w.metrics.EmbeddingComputed()

	w.store(key, e)
	w.imageURL, w.embeddings = imageURL, e
	return e, nil
}

func (w *Worker) cached(key string) (*segment.Embeddings, bool) {
	if w.cache == nil {
		return nil, false
	}

	b, err := w.cache.Get(key)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			w.console.Warn(fmt.Sprintf("embedding cache read failed: %s", err))
		}
		return nil, false
	}

	var e segment.Embeddings
	if err := e.UnmarshalBinary(b); err != nil {
		w.console.Warn(fmt.Sprintf("discarding cached embeddings: %s", err))
		if err := w.cache.Delete(key); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
			w.console.Warn(fmt.Sprintf("embedding cache delete failed: %s", err))
		}
		return nil, false
	}
	return &e, true
}

func (w *Worker) store(key string, e *segment.Embeddings) {
	if w.cache == nil {
		return
	}

	b, err := e.MarshalBinary()
	if err == nil {
		err = w.cache.Set(key, b)
	}
	if err != nil {
		w.console.Warn(fmt.Sprintf("embedding cache write failed: %s", err))
	}
}

// fetch downloads url and fails on anything but a 2xx with a body.
func (w *Worker) fetch(url string) ([]byte, error) {
	resp, err := w.http.Get(url)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}
	if resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetch, url, resp.StatusCode)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("%w: %s returned an empty body", ErrFetch, url)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}
	return b, nil
}

func cacheKey(modelID, imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return "embeddings:" + modelID + ":" + hex.EncodeToString(sum[:])
}

type nopRecorder struct{}

func (nopRecorder) ModelLoaded()              {}
func (nopRecorder) EmbeddingComputed()        {}
func (nopRecorder) EmbeddingCacheHit()        {}
func (nopRecorder) RequestFailed()            {}
func (nopRecorder) MaskDecoded(time.Duration) {}
