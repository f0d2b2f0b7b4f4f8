package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
)

// ImageSize is the side length of the square image the model consumes.
const ImageSize = 1024

var (
	// ErrNoBackend is returned when a model is created without an inference backend.
	ErrNoBackend = errors.New("segmentation backend is nil")

	// ErrEmptyImage indicates a nil, empty or zero-sized image.
	ErrEmptyImage = errors.New("image is empty")

	// ErrDecodeImage wraps failures while decoding image bytes.
	ErrDecodeImage = errors.New("failed to decode image")

	// ErrImageTooLarge indicates a source image above MaxImagePixels.
	ErrImageTooLarge = errors.New("image is too large")

	// ErrInvalidEmbeddings indicates embeddings that are nil or carry no source dimensions.
	ErrInvalidEmbeddings = errors.New("embeddings are invalid")

	// ErrNoPoints is returned when a mask is requested without any prompt points.
	ErrNoPoints = errors.New("at least one point is required")

	// ErrPointOutOfRange indicates a point outside the normalized [0,1] range.
	ErrPointOutOfRange = errors.New("point is outside the image")

	// ErrBackendEmbed wraps failures reported by Backend.Embed.
	ErrBackendEmbed = errors.New("backend failed to compute embeddings")

	// ErrBackendMask wraps failures reported by Backend.Mask, including masks of the wrong size.
	ErrBackendMask = errors.New("backend failed to produce a mask")
)

// Point is a prompt on the source image. X and Y are normalized to [0,1];
// Foreground marks the point as inside the object rather than background.
type Point struct {
	X          float64
	Y          float64
	Foreground bool
}

// UnmarshalJSON accepts the [x, y, isForeground] tuple the browser posts.
func (p *Point) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("point must be an [x, y, foreground] array: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("point must have 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.X); err != nil {
		return fmt.Errorf("point x: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Y); err != nil {
		return fmt.Errorf("point y: %w", err)
	}
	if err := json.Unmarshal(raw[2], &p.Foreground); err != nil {
		return fmt.Errorf("point foreground flag: %w", err)
	}
	return nil
}

// MarshalJSON writes the point as an [x, y, isForeground] tuple.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.X, p.Y, p.Foreground})
}

// Prompt is a point in model space, in pixels of the ImageSize square.
type Prompt struct {
	X          int
	Y          int
	Foreground bool
}

// Backend runs the model itself. Embed receives an ImageSize x ImageSize
// image and returns opaque embeddings; Mask turns those embeddings and a set
// of prompts into an ImageSize x ImageSize mask where non-zero means inside.
type Backend interface {
	Embed(img *image.RGBA) ([]byte, error)
	Mask(embeddings []byte, prompts []Prompt) (*image.Gray, error)
}

// Loader builds a Backend for a catalog model.
type Loader interface {
	// Load creates a backend from the model's weights. weights is nil when
	// NeedsWeights reports false.
	Load(spec ModelSpec, weights []byte) (Backend, error)

	// NeedsWeights reports whether Load requires the safetensors weights.
	NeedsWeights() bool
}

// Sam is a segment-anything model bound to an inference backend.
type Sam struct {
	spec    ModelSpec
	backend Backend
}

// New creates a model for spec backed by b.
func New(spec ModelSpec, b Backend) (*Sam, error) {
	if b == nil {
		return nil, ErrNoBackend
	}
	return &Sam{spec: spec, backend: b}, nil
}

// Model returns the catalog entry the model was created from.
func (s *Sam) Model() ModelSpec { return s.spec }

// Embed preprocesses img and computes its embeddings.
func (s *Sam) Embed(img image.Image) (*Embeddings, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if !withinPixelBudget(img.Bounds().Dx(), img.Bounds().Dy()) {
		return nil, ErrImageTooLarge
	}

	data, err := s.backend.Embed(Preprocess(img))
	if err != nil {
		return nil, errors.Join(ErrBackendEmbed, err)
	}

	b := img.Bounds()
	return &Embeddings{Width: b.Dx(), Height: b.Dy(), Data: data}, nil
}

// Segment produces a binary mask the size of the embedded source image.
func (s *Sam) Segment(e *Embeddings, points []Point) (*image.Gray, error) {
	if e == nil || !withinPixelBudget(e.Width, e.Height) {
		return nil, ErrInvalidEmbeddings
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	nw, nh := ResizedDims(e.Width, e.Height)
	prompts := make([]Prompt, 0, len(points))
	for i, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return nil, fmt.Errorf("%w: point %d is (%g, %g)", ErrPointOutOfRange, i, p.X, p.Y)
		}
		prompts = append(prompts, Prompt{
			X:          clamp(int(p.X*float64(nw)), nw-1),
			Y:          clamp(int(p.Y*float64(nh)), nh-1),
			Foreground: p.Foreground,
		})
	}

	mask, err := s.backend.Mask(e.Data, prompts)
	if err != nil {
		return nil, errors.Join(ErrBackendMask, err)
	}
	if mask == nil || mask.Bounds() != image.Rect(0, 0, ImageSize, ImageSize) {
		return nil, fmt.Errorf("%w: expected a %dx%d mask", ErrBackendMask, ImageSize, ImageSize)
	}

	return Postprocess(mask, e.Width, e.Height), nil
}

func clamp(v, hi int) int {
	if v > hi {
		return hi
	}
	if v < 0 {
		return 0
	}
	return v
}
