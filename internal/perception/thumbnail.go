package perception

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/nfnt/resize"
)

// Thumbnail downscales a decoded frame to maxWidth (preserving aspect
// ratio) and re-encodes as PNG, for cheap debug-sink pushes.
func Thumbnail(img image.Image, maxWidth uint) ([]byte, error) {
	resized := resize.Resize(maxWidth, 0, img, resize.Bilinear)

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
