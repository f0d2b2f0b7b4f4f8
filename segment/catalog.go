package segment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ModelBaseURL is where the published safetensors weights live.
const ModelBaseURL = "https://huggingface.co/lmz/candle-sam/resolve/main/"

// ErrUnknownModel is returned for a model ID that is not in the catalog.
var ErrUnknownModel = errors.New("unknown model")

// ModelSpec describes a published model.
type ModelSpec struct {
	// ID is the identifier clients send, e.g. "sam_base".
	ID string

	// File is the weights file name relative to ModelBaseURL.
	File string

	// Tiny marks the MobileSAM TinyViT variant.
	Tiny bool
}

// URL returns the full weights URL.
func (m ModelSpec) URL() string { return ModelBaseURL + m.File }

var catalog = map[string]ModelSpec{
	"sam_mobile_tiny": {ID: "sam_mobile_tiny", File: "mobile_sam-tiny-vitt.safetensors", Tiny: true},
	"sam_base":        {ID: "sam_base", File: "sam_vit_b_01ec64.safetensors"},
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (ModelSpec, error) {
	m, ok := catalog[id]
	if !ok {
		ids := make([]string, 0, len(catalog))
		for _, m := range Models() {
			ids = append(ids, m.ID)
		}
		return ModelSpec{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownModel, id, strings.Join(ids, ", "))
	}
	return m, nil
}

// Models lists the catalog sorted by ID.
func Models() []ModelSpec {
	out := make([]ModelSpec, 0, len(catalog))
	for _, m := range catalog {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
