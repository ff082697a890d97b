package engine

import (
	"errors"
	"testing"

	"github.com/adbplan/planrunner/internal/planmodel"
)

func screenEnginePlan() *planmodel.Plan {
	return &planmodel.Plan{
		Screens: map[string]*planmodel.Screen{
			"start": {
				Ident: []planmodel.ScreenIdent{{Kind: planmodel.IdentRefMatch, Reference: "start.png"}},
				Nav: planmodel.ScreenNavigation{
					Back: false,
					To:   map[string]planmodel.ScreenTo{"end": {Kind: planmodel.ScreenToScript, Script: "to_end.lua"}},
				},
			},
			"end": {
				Nav: planmodel.ScreenNavigation{Back: true, To: map[string]planmodel.ScreenTo{}},
			},
		},
	}
}

func TestScreenEngineStepRequiresIdentifyBeforeNavigate(t *testing.T) {
	plan := screenEnginePlan()
	e := NewScreenEngine(plan)
	if err := e.SetNavigateTarget("end"); err != nil {
		t.Fatalf("SetNavigateTarget: %v", err)
	}

	kind, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if kind != ActionIdentify {
		t.Fatalf("expected ActionIdentify before any navigation, got %v", kind)
	}
}

func TestScreenEngineStepNavigatesAfterIdentified(t *testing.T) {
	plan := screenEnginePlan()
	e := NewScreenEngine(plan)
	if err := e.SetNavigateTarget("end"); err != nil {
		t.Fatalf("SetNavigateTarget: %v", err)
	}
	if err := e.MarkIdentified("start"); err != nil {
		t.Fatalf("MarkIdentified: %v", err)
	}

	kind, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if kind != ActionNavigate {
		t.Fatalf("expected ActionNavigate once identified, got %v", kind)
	}

	if _, ok := e.PendingStep(); !ok {
		t.Fatalf("expected a pending step")
	}
	if err := e.StepNavigate(); err != nil {
		t.Fatalf("StepNavigate: %v", err)
	}
	if e.State().Curr != "end" {
		t.Fatalf("expected to have advanced to end, got %q", e.State().Curr)
	}
}

func TestScreenEngineStepNoneWhenQueueEmptyAndNoIdents(t *testing.T) {
	plan := screenEnginePlan()
	e := NewScreenEngine(plan)
	e.state.Curr = "end" // end has no idents and no queued path

	kind, err := e.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if kind != ActionNone {
		t.Fatalf("expected ActionNone, got %v", kind)
	}
}

func TestScreenEngineMarkIdentifiedRejectsOtherScreens(t *testing.T) {
	plan := screenEnginePlan()
	e := NewScreenEngine(plan)
	err := e.MarkIdentified("end")
	if !errors.Is(err, ErrPopupsNotSupported) {
		t.Fatalf("expected ErrPopupsNotSupported, got %v", err)
	}
}

func TestScreenEngineStepNavigateOnEmptyQueueErrors(t *testing.T) {
	plan := screenEnginePlan()
	e := NewScreenEngine(plan)
	if err := e.StepNavigate(); !errors.Is(err, ErrNoMoreSteps) {
		t.Fatalf("expected ErrNoMoreSteps, got %v", err)
	}
}
