package perception

import "testing"

func solidGray(w, h int, value float64) *Gray64 {
	pix := make([]float64, w*h)
	for i := range pix {
		pix[i] = value
	}
	return &Gray64{W: w, H: h, Pix: pix}
}

func TestMatchTemplateExactMatchScoresZero(t *testing.T) {
	search := solidGray(10, 10, 0.5)
	template := solidGray(4, 4, 0.5)
	result := MatchTemplate(search, template, NormalizedSSDThreshold)
	if !result.Found {
		t.Fatalf("expected an exact flat match to be found, got %+v", result)
	}
	if result.MinNorm != 0 {
		t.Fatalf("expected MinNorm 0 for identical patches, got %v", result.MinNorm)
	}
}

func TestMatchTemplateRejectsBeyondThreshold(t *testing.T) {
	search := solidGray(10, 10, 0.0)
	template := solidGray(4, 4, 1.0)
	result := MatchTemplate(search, template, NormalizedSSDThreshold)
	if result.Found {
		t.Fatalf("expected a maximally different template not to match, got %+v", result)
	}
}

func TestMatchTemplateTooSmallSearchArea(t *testing.T) {
	search := solidGray(2, 2, 0.5)
	template := solidGray(4, 4, 0.5)
	result := MatchTemplate(search, template, NormalizedSSDThreshold)
	if result.Found {
		t.Fatalf("template larger than search area must never match")
	}
}

func TestHaloExpandClampsToBounds(t *testing.T) {
	hx, hy, hw, hh := HaloExpand(5, 5, 10, 10, 20, 100, 100)
	if hx != 0 || hy != 0 {
		t.Fatalf("expected top-left clamp to 0,0, got %d,%d", hx, hy)
	}
	if hw != 35 || hh != 35 {
		t.Fatalf("expected expanded region 35x35, got %dx%d", hw, hh)
	}
}

func TestGray64CropOutOfBounds(t *testing.T) {
	g := solidGray(10, 10, 1.0)
	cropped := g.Crop(8, 8, 10, 10)
	if cropped.W != 2 || cropped.H != 2 {
		t.Fatalf("expected crop clamped to 2x2, got %dx%d", cropped.W, cropped.H)
	}
}

// reference is a larger asset with a distinct 4x4 patch at (20,20): value
// 1.0 everywhere else, 0.0 inside the patch. Only the patch, not the whole
// asset, should ever be used as the match template.
func patchedReference() *Gray64 {
	ref := solidGray(30, 30, 1.0)
	for y := 20; y < 24; y++ {
		for x := 20; x < 24; x++ {
			ref.Pix[y*ref.W+x] = 0.0
		}
	}
	return ref
}

func TestMatchRefAtCropsReferenceToRectBeforeMatching(t *testing.T) {
	// frame carries the same 4x4 dark patch at (20,20), surrounded by the
	// light background the rest of the oversized reference is filled with.
	frame := solidGray(60, 60, 1.0)
	for y := 20; y < 24; y++ {
		for x := 20; x < 24; x++ {
			frame.Pix[y*frame.W+x] = 0.0
		}
	}

	result := MatchRefAt(frame, patchedReference(), 20, 20, 4, 4, NormalizedSSDThreshold)
	if !result.Found {
		t.Fatalf("expected the rect-cropped patch to match its location in frame, got %+v", result)
	}
}

func TestMatchRefAtRejectsWhenRectPatchDoesNotMatch(t *testing.T) {
	// frame has no dark patch anywhere: matching the reference's rect-
	// cropped 4x4 patch (dark) against a uniformly light frame must fail.
	// This would falsely pass if MatchRefAt matched the whole (mostly
	// light) reference instead of the cropped dark patch.
	frame := solidGray(60, 60, 1.0)
	result := MatchRefAt(frame, patchedReference(), 20, 20, 4, 4, NormalizedSSDThreshold)
	if result.Found {
		t.Fatalf("expected no match against a uniformly light frame, got %+v", result)
	}
}
