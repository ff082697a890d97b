package perception

import (
	"context"
	"testing"

	"github.com/adbplan/planrunner/internal/planmodel"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) RecognizeText(ctx context.Context, region *Gray64) (string, error) {
	return f.text, f.err
}

func TestIdentifierEvaluateRequiresAllIdentsToMatch(t *testing.T) {
	frame := solidGray(20, 20, 0.5)
	id := &Identifier{
		Assets:    &AssetLoader{cache: map[string]*Gray64{"tpl.png": solidGray(4, 4, 0.5)}},
		OCR:       &fakeOCR{text: "Settings"},
		Threshold: NormalizedSSDThreshold,
	}

	idents := []planmodel.ScreenIdent{
		{Kind: planmodel.IdentRefMatch, Reference: "tpl.png", RefRect: planmodel.Rect{X: 0, Y: 0, W: 4, H: 4}},
		{Kind: planmodel.IdentOCR, OCRText: "Settings", OCROp: planmodel.OpExact, OCRRect: planmodel.Rect{X: 0, Y: 0, W: 10, H: 10}},
	}

	ok, err := id.Evaluate(context.Background(), frame, idents)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !ok {
		t.Fatalf("expected all-matching idents to identify the screen")
	}
}

func TestIdentifierEvaluateFailsIfAnyIdentFails(t *testing.T) {
	frame := solidGray(20, 20, 0.5)
	id := &Identifier{
		Assets:    &AssetLoader{cache: map[string]*Gray64{"tpl.png": solidGray(4, 4, 0.5)}},
		OCR:       &fakeOCR{text: "Home"},
		Threshold: NormalizedSSDThreshold,
	}

	idents := []planmodel.ScreenIdent{
		{Kind: planmodel.IdentRefMatch, Reference: "tpl.png", RefRect: planmodel.Rect{X: 0, Y: 0, W: 4, H: 4}},
		{Kind: planmodel.IdentOCR, OCRText: "Settings", OCROp: planmodel.OpExact, OCRRect: planmodel.Rect{X: 0, Y: 0, W: 10, H: 10}},
	}

	ok, err := id.Evaluate(context.Background(), frame, idents)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatched OCR text to fail identification")
	}
}

func TestIdentifierEvaluateMissingOCREngineErrors(t *testing.T) {
	frame := solidGray(20, 20, 0.5)
	id := &Identifier{Assets: &AssetLoader{cache: map[string]*Gray64{}}, Threshold: NormalizedSSDThreshold}
	idents := []planmodel.ScreenIdent{
		{Kind: planmodel.IdentOCR, OCRText: "x", OCROp: planmodel.OpExact, OCRRect: planmodel.Rect{W: 5, H: 5}},
	}
	if _, err := id.Evaluate(context.Background(), frame, idents); err == nil {
		t.Fatalf("expected an error when OCR ident present but no engine configured")
	}
}
