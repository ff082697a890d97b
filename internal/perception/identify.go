package perception

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/adbplan/planrunner/internal/planmodel"
)

// AssetLoader loads reference/template images named in a plan by relative
// path, rooted at the plan's workdir.
type AssetLoader struct {
	root  string
	cache map[string]*Gray64
}

func NewAssetLoader(workdir string) *AssetLoader {
	return &AssetLoader{root: workdir, cache: map[string]*Gray64{}}
}

func (a *AssetLoader) Load(relPath string) (*Gray64, error) {
	if g, ok := a.cache[relPath]; ok {
		return g, nil
	}
	f, err := os.Open(filepath.Join(a.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", relPath, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", relPath, err)
	}
	g := ToGray64(img)
	a.cache[relPath] = g
	return g, nil
}

// Identifier evaluates a screen's ident list against a captured frame. A
// screen identifies when ALL of its idents match (see DESIGN.md Open
// Question decisions for why AND, not OR, is used across a screen's
// ident list).
type Identifier struct {
	Assets    *AssetLoader
	OCR       OCREngine
	Threshold float64
}

// Evaluate reports whether every ident in idents matches frame.
func (id *Identifier) Evaluate(ctx context.Context, frame *Gray64, idents []planmodel.ScreenIdent) (bool, error) {
	for _, ident := range idents {
		ok, err := id.evaluateOne(ctx, frame, ident)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (id *Identifier) evaluateOne(ctx context.Context, frame *Gray64, ident planmodel.ScreenIdent) (bool, error) {
	switch ident.Kind {
	case planmodel.IdentRefMatch:
		reference, err := id.Assets.Load(ident.Reference)
		if err != nil {
			return false, err
		}
		r := ident.RefRect
		result := MatchRefAt(frame, reference, int(r.X), int(r.Y), int(r.W), int(r.H), id.Threshold)
		return result.Found, nil

	case planmodel.IdentImageMatch:
		tmpl, err := id.Assets.Load(ident.Image)
		if err != nil {
			return false, err
		}
		result := MatchImageAt(frame, tmpl, ident.ImPos, id.Threshold)
		return result.Found, nil

	case planmodel.IdentOCR:
		if id.OCR == nil {
			return false, fmt.Errorf("perception: ocr ident present but no OCREngine configured")
		}
		r := ident.OCRRect
		return MatchOCR(ctx, id.OCR, frame, int(r.X), int(r.Y), int(r.W), int(r.H), ident.OCROp, ident.OCRText)

	default:
		return false, fmt.Errorf("perception: unknown ident kind %v", ident.Kind)
	}
}
