// Package perception implements visual screen identification: normalized
// grayscale template matching for ref/image idents, and OCR region
// matching against the closed text-operation set.
package perception

import (
	"image"
)

// Gray64 is a decoded screenshot or template reduced to float64 luma
// values in [0, 1], mirroring image_stuff.rs's convert_luma_f32_to_u8
// round-trip (kept as a float pipeline here rather than quantizing back to
// u8, since Go has no need for the two image-crate-version bridge that
// function existed to solve).
type Gray64 struct {
	W, H int
	Pix  []float64
}

func (g *Gray64) at(x, y int) float64 {
	return g.Pix[y*g.W+x]
}

// ToGray64 converts any decoded image to normalized grayscale luma.
func ToGray64(img image.Image) *Gray64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &Gray64{W: w, H: h, Pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma, matching the weights typical of the
			// image crate's Luma conversion.
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			out.Pix[y*w+x] = luma / 65535.0
		}
	}
	return out
}

// Crop extracts the sub-image [x, y, x+w, y+h), clamped to bounds.
func (g *Gray64) Crop(x, y, w, h int) *Gray64 {
	x0, y0 := clampInt(x, 0, g.W), clampInt(y, 0, g.H)
	x1, y1 := clampInt(x+w, 0, g.W), clampInt(y+h, 0, g.H)
	if x1 <= x0 || y1 <= y0 {
		return &Gray64{}
	}
	out := &Gray64{W: x1 - x0, H: y1 - y0, Pix: make([]float64, (x1-x0)*(y1-y0))}
	for yy := y0; yy < y1; yy++ {
		copy(out.Pix[(yy-y0)*out.W:(yy-y0+1)*out.W], g.Pix[yy*g.W+x0:yy*g.W+x1])
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// HaloExpand grows a rectangle by margin pixels on every side, clamped to
// [0, maxW) x [0, maxH). Used to pad a ref/image match region so minor
// layout drift between runs doesn't clip the template search area.
func HaloExpand(x, y, w, h, margin, maxW, maxH int) (hx, hy, hw, hh int) {
	hx = clampInt(x-margin, 0, maxW)
	hy = clampInt(y-margin, 0, maxH)
	x1 := clampInt(x+w+margin, 0, maxW)
	y1 := clampInt(y+h+margin, 0, maxH)
	return hx, hy, x1 - hx, y1 - hy
}
