package perception

import (
	"math"

	"github.com/adbplan/planrunner/internal/planmodel"
)

// HaloMarginPx is the halo expansion applied around a ref/image match
// region before searching for the template, absorbing minor layout drift
// between runs.
const HaloMarginPx = 20

// NormalizedSSDThreshold: a match is accepted when min_value/(tw*th) is
// below this, where min_value is the lowest sum-of-squared-differences
// found while sliding the template over the halo-expanded search window.
// Normalizing by template pixel count keeps the threshold scale-
// independent across differently sized templates (see DESIGN.md).
const NormalizedSSDThreshold = 0.04

// MatchResult reports whether a template was found in a search area, and
// where.
type MatchResult struct {
	Found    bool
	MinNorm  float64
	BestX    int
	BestY    int
}

// MatchTemplate slides template over search (search must be at least as
// large as template in both dimensions) and returns the best-scoring
// position. The normalized score is compared against threshold.
func MatchTemplate(search, template *Gray64, threshold float64) MatchResult {
	if template.W == 0 || template.H == 0 || search.W < template.W || search.H < template.H {
		return MatchResult{Found: false, MinNorm: math.Inf(1)}
	}

	best := math.Inf(1)
	bestX, bestY := 0, 0

	for oy := 0; oy <= search.H-template.H; oy++ {
		for ox := 0; ox <= search.W-template.W; ox++ {
			sum := 0.0
			for ty := 0; ty < template.H; ty++ {
				for tx := 0; tx < template.W; tx++ {
					diff := search.at(ox+tx, oy+ty) - template.at(tx, ty)
					sum += diff * diff
				}
			}
			if sum < best {
				best = sum
				bestX, bestY = ox, oy
			}
		}
	}

	norm := best / float64(template.W*template.H)
	return MatchResult{Found: norm < threshold, MinNorm: norm, BestX: bestX, BestY: bestY}
}

// MatchRefAt crops reference down to rect — a reference asset is typically
// larger than the region it identifies, with rect naming the sub-region
// that should reappear in the live frame — then searches for that crop in
// a halo-expanded region of frame around the same rect, implementing the
// RefMatch ident kind.
func MatchRefAt(frame, reference *Gray64, x, y, w, h int, threshold float64) MatchResult {
	template := reference.Crop(x, y, w, h)
	return matchInHaloWindow(frame, template, x, y, w, h, threshold)
}

// MatchImageAt is the ImageMatch ident kind: template is matched whole (it
// names its own match region in full, unlike a RefMatch reference asset),
// searched in a halo-expanded window anchored at pos with the template's
// own dimensions.
func MatchImageAt(frame, template *Gray64, pos planmodel.Pos, threshold float64) MatchResult {
	return matchInHaloWindow(frame, template, int(pos.X), int(pos.Y), template.W, template.H, threshold)
}

func matchInHaloWindow(frame, template *Gray64, x, y, w, h int, threshold float64) MatchResult {
	hx, hy, hw, hh := HaloExpand(x, y, w, h, HaloMarginPx, frame.W, frame.H)
	search := frame.Crop(hx, hy, hw, hh)
	return MatchTemplate(search, template, threshold)
}
