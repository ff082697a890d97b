package perception

import (
	"context"

	"github.com/adbplan/planrunner/internal/planmodel"
)

// OCREngine recognizes text within a cropped screenshot region. Loading
// and running an actual recognition model is out of scope for the core —
// every concrete OCREngine is an injected collaborator supplied by the
// caller; cmd/planrunner supplies none (see DESIGN.md for why this stays a
// plain interface rather than a wrapped third-party client).
type OCREngine interface {
	RecognizeText(ctx context.Context, region *Gray64) (string, error)
}

// MatchOCR crops frame to rect and asks engine for its text, then applies
// op against target, implementing the Ocr ident kind.
func MatchOCR(ctx context.Context, engine OCREngine, frame *Gray64, x, y, w, h int, op planmodel.TextOperation, target string) (bool, error) {
	region := frame.Crop(x, y, w, h)
	text, err := engine.RecognizeText(ctx, region)
	if err != nil {
		return false, err
	}
	return op.Run(text, target), nil
}
