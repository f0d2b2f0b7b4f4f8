/*
Package segment holds the segment-anything model surface used by the guest.

A Sam pairs a catalog ModelSpec with a Backend that does the actual inference.
The package owns everything around the backend: scaling the source image so its
longest side is ImageSize and padding it to a square, mapping normalized prompt
points into model space, and cropping and resampling the model-space mask back
to the source dimensions.

	m, _ := segment.New(spec, backend)
	emb, _ := m.Embed(img)
	mask, _ := m.Segment(emb, []segment.Point{{X: 0.5, Y: 0.5, Foreground: true}})
	url, _ := segment.MaskDataURL(mask)

Embeddings implement encoding.BinaryMarshaler so they can be cached between
requests for the same image.
*/
package segment
