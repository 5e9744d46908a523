package images

import (
	"bytes"
	"fmt"
	"log"

	"github.com/disintegration/imaging"

	"github.com/pricelens/backend/internal/domain"
)

// Default normalization constraints. Photos larger than the max side are
// downscaled before upload; smaller ones are never upscaled.
const (
	DefaultMaxSide = 1500
	DefaultQuality = 86
)

// Normalizer prepares uploaded photos for transmission to the recognition
// service: orientation fixed, bounded resolution, JPEG re-encode.
type Normalizer struct {
	maxSide int
	quality int
	debug   bool
}

// NewNormalizer creates a normalizer with the given constraints. Non-positive
// values fall back to the defaults.
func NewNormalizer(maxSide, quality int) *Normalizer {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Normalizer{maxSide: maxSide, quality: quality}
}

// SetDebug enables debug logging of per-image dimensions
func (n *Normalizer) SetDebug(debug bool) {
	n.debug = debug
}

// Normalized is a memory-resident normalized image artifact. It lives only for
// the duration of the scan request.
type Normalized struct {
	JPEG   []byte
	Width  int
	Height int
}

// Normalize decodes raw image bytes, applies any embedded EXIF orientation,
// downscales so the longer side is at most the configured maximum (preserving
// aspect ratio, never upscaling) and re-encodes as JPEG. A decode failure is
// terminal for this image only and is reported as domain.ErrDecodeFailed.
func (n *Normalizer) Normalize(data []byte) (*Normalized, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if srcW > n.maxSide || srcH > n.maxSide {
		img = imaging.Fit(img, n.maxSide, n.maxSide, imaging.Lanczos)
	} else {
		// Clone converts to NRGBA so the encoded output is always a
		// 3-channel JPEG regardless of the source color mode.
		img = imaging.Clone(img)
	}

	outBounds := img.Bounds()
	outW, outH := outBounds.Dx(), outBounds.Dy()

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	if n.debug {
		log.Printf("[IMG] normalized %dx%d -> %dx%d (%d bytes)", srcW, srcH, outW, outH, buf.Len())
	}

	return &Normalized{JPEG: buf.Bytes(), Width: outW, Height: outH}, nil
}
