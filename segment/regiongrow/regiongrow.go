// Package regiongrow is a weight-free segment.Backend that grows regions of
// similar colour from each prompt point. It is the backend the guest ships
// with when no learned model is linked in.
package regiongrow

import (
	"errors"
	"fmt"
	"image"

	"github.com/tarmac-project/sam/segment"
)

// DefaultTolerance is the largest per-channel difference from the seed
// colour a pixel may have and still join the region.
const DefaultTolerance = 32

const embeddingsLen = segment.ImageSize * segment.ImageSize * 4

// ErrEmbeddingsSize indicates embeddings that were not produced by this backend.
var ErrEmbeddingsSize = errors.New("embeddings have an unexpected size")

// Config controls region growing.
type Config struct {
	// Tolerance overrides DefaultTolerance when non-zero.
	Tolerance uint8
}

// Backend implements segment.Backend with 4-connected flood fills.
type Backend struct {
	tolerance int
}

var _ segment.Backend = (*Backend)(nil)

// New creates a Backend.
func New(cfg Config) *Backend {
	tol := int(cfg.Tolerance)
	if tol == 0 {
		tol = DefaultTolerance
	}
	return &Backend{tolerance: tol}
}

// Embed returns the padded RGBA pixels; colour is all this backend needs.
func (b *Backend) Embed(img *image.RGBA) ([]byte, error) {
	if img.Bounds() != image.Rect(0, 0, segment.ImageSize, segment.ImageSize) {
		return nil, fmt.Errorf("expected a %dx%d image, got %v", segment.ImageSize, segment.ImageSize, img.Bounds())
	}

	out := make([]byte, 0, embeddingsLen)
	for y := 0; y < segment.ImageSize; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+segment.ImageSize*4]
		out = append(out, row...)
	}
	return out, nil
}

// Mask grows a region from every foreground prompt, then removes whatever
// grows from the background prompts.
func (b *Backend) Mask(embeddings []byte, prompts []segment.Prompt) (*image.Gray, error) {
	if len(embeddings) != embeddingsLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrEmbeddingsSize, len(embeddings))
	}

	const n = segment.ImageSize * segment.ImageSize
	inside := make([]bool, n)
	outside := make([]bool, n)

	for _, p := range prompts {
		if p.Foreground {
			b.grow(embeddings, p, inside)
		} else {
			b.grow(embeddings, p, outside)
		}
	}

	mask := image.NewGray(image.Rect(0, 0, segment.ImageSize, segment.ImageSize))
	for i := range mask.Pix {
		if inside[i] && !outside[i] {
			mask.Pix[i] = 0xff
		}
	}
	return mask, nil
}

// grow marks every pixel reachable from p whose colour stays within
// tolerance of the seed.
func (b *Backend) grow(px []byte, p segment.Prompt, seen []bool) {
	const size = segment.ImageSize
	if p.X < 0 || p.X >= size || p.Y < 0 || p.Y >= size {
		return
	}

	seed := p.Y*size + p.X
	if seen[seed] {
		return
	}
	sr, sg, sb := px[seed*4], px[seed*4+1], px[seed*4+2]

	queue := []int{seed}
	seen[seed] = true
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		x, y := i%size, i/size
		for _, nb := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if nb[0] < 0 || nb[0] >= size || nb[1] < 0 || nb[1] >= size {
				continue
			}
			j := nb[1]*size + nb[0]
			if seen[j] {
				continue
			}
			if !b.similar(px[j*4], px[j*4+1], px[j*4+2], sr, sg, sb) {
				continue
			}
			seen[j] = true
			queue = append(queue, j)
		}
	}
}

func (b *Backend) similar(r, g, bl, sr, sg, sb byte) bool {
	return absDiff(r, sr) <= b.tolerance && absDiff(g, sg) <= b.tolerance && absDiff(bl, sb) <= b.tolerance
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Loader implements segment.Loader for the region-growing backend.
type Loader struct {
	Config Config
}

var _ segment.Loader = Loader{}

// Load ignores weights and returns a new Backend.
func (l Loader) Load(_ segment.ModelSpec, _ []byte) (segment.Backend, error) {
	return New(l.Config), nil
}

// NeedsWeights reports false; region growing has no learned parameters.
func (Loader) NeedsWeights() bool { return false }
