package engine

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// decodePNG decodes a captured framebuffer (ADB screencap always produces
// PNG, but the format sniff also accepts JPEG for test fixtures).
func decodePNG(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	return img, err
}
