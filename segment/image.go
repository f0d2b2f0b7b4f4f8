package segment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const maskThreshold = 128

// MaxImagePixels bounds the area of source images. Masks are allocated at
// source size, so anything larger would not fit in guest memory.
const MaxImagePixels = 4096 * 4096

// withinPixelBudget reports whether a w x h image is non-empty and no
// larger than MaxImagePixels. It avoids w*h, which overflows a 32-bit int.
func withinPixelBudget(w, h int) bool {
	if w <= 0 || h <= 0 {
		return false
	}
	return w <= MaxImagePixels/h
}

// ResizedDims returns the size of a w x h image once its longest side is
// scaled to ImageSize.
func ResizedDims(w, h int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	scale := float64(ImageSize) / float64(longest)

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Preprocess scales img so its longest side is ImageSize and pads the
// bottom and right edges with zero pixels to an ImageSize square.
func Preprocess(img image.Image) *image.RGBA {
	b := img.Bounds()
	nw, nh := ResizedDims(b.Dx(), b.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, ImageSize, ImageSize))
	draw.CatmullRom.Scale(dst, image.Rect(0, 0, nw, nh), img, b, draw.Src, nil)
	return dst
}

// Postprocess crops a model-space mask to the region covered by a w x h
// source image, resamples it back to w x h and thresholds it to 0 or 255.
func Postprocess(mask *image.Gray, w, h int) *image.Gray {
	nw, nh := ResizedDims(w, h)
	crop := mask.SubImage(image.Rect(0, 0, nw, nh))

	out := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), crop, crop.Bounds(), draw.Src, nil)

	for i, v := range out.Pix {
		if v >= maskThreshold {
			out.Pix[i] = 0xff
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// DecodeImage decodes PNG, JPEG, GIF or WebP bytes. The header is checked
// against MaxImagePixels before any pixels are decoded.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrDecodeImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyImage
	}
	if !withinPixelBudget(cfg.Width, cfg.Height) {
		return nil, errors.Join(ErrDecodeImage, ErrImageTooLarge,
			fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Join(ErrDecodeImage, err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// EncodeMaskPNG renders mask as a PNG that is opaque white inside the mask
// and fully transparent elsewhere, ready to be composited over the source.
func EncodeMaskPNG(mask *image.Gray) ([]byte, error) {
	b := mask.Bounds()
	out := image.NewNRGBA(b)
	white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				out.SetNRGBA(x, y, white)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaskDataURL encodes mask as a data:image/png URL.
func MaskDataURL(mask *image.Gray) (string, error) {
	b, err := EncodeMaskPNG(mask)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b), nil
}
