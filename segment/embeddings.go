package segment

import (
	"encoding/binary"
	"fmt"
)

var embeddingsMagic = [4]byte{'S', 'A', 'M', 'E'}

const (
	embeddingsVersion    = 1
	embeddingsHeaderSize = 4 + 1 + 4 + 4
)

// Embeddings are the image embeddings computed once per image and reused
// for every prompt. Width and Height are the source image dimensions.
type Embeddings struct {
	Width  int
	Height int
	Data   []byte
}

// MarshalBinary encodes the embeddings as magic, version, width, height
// (big-endian uint32) followed by the raw backend data.
func (e *Embeddings) MarshalBinary() ([]byte, error) {
	if !withinPixelBudget(e.Width, e.Height) {
		return nil, ErrInvalidEmbeddings
	}

	out := make([]byte, embeddingsHeaderSize, embeddingsHeaderSize+len(e.Data))
	copy(out, embeddingsMagic[:])
	out[4] = embeddingsVersion
	binary.BigEndian.PutUint32(out[5:9], uint32(e.Width))
	binary.BigEndian.PutUint32(out[9:13], uint32(e.Height))
	return append(out, e.Data...), nil
}

// UnmarshalBinary decodes embeddings written by MarshalBinary.
func (e *Embeddings) UnmarshalBinary(b []byte) error {
	if len(b) < embeddingsHeaderSize {
		return fmt.Errorf("%w: short header (%d bytes)", ErrInvalidEmbeddings, len(b))
	}
	if [4]byte(b[:4]) != embeddingsMagic {
		return fmt.Errorf("%w: bad magic", ErrInvalidEmbeddings)
	}
	if b[4] != embeddingsVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidEmbeddings, b[4])
	}

	w := int(binary.BigEndian.Uint32(b[5:9]))
	h := int(binary.BigEndian.Uint32(b[9:13]))
	if !withinPixelBudget(w, h) {
		return fmt.Errorf("%w: source dimensions %dx%d", ErrInvalidEmbeddings, w, h)
	}

	e.Width = w
	e.Height = h
	e.Data = append([]byte(nil), b[embeddingsHeaderSize:]...)
	return nil
}
