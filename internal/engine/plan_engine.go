package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adbplan/planrunner/internal/device"
	"github.com/adbplan/planrunner/internal/pathfind"
	"github.com/adbplan/planrunner/internal/perception"
	"github.com/adbplan/planrunner/internal/planlog"
	"github.com/adbplan/planrunner/internal/planmodel"
	"github.com/adbplan/planrunner/internal/scripthost"
)

// PlanEngine is the top-level driver: it owns the ScreenEngine's
// pathfinding state and actually executes each decision against a device,
// perception pipeline, and script host.
type PlanEngine struct {
	Plan       *planmodel.Plan
	Screen     *ScreenEngine
	Device     *device.Guarded
	Identifier *perception.Identifier
	Scripts    *scripthost.Host
	Sink       perception.DebugSink
	StepSleep  time.Duration

	lastFrame *perception.Gray64
}

// NewPlanEngine wires the collaborators together. The driver loop captures
// one frame per Identify step and evaluates every ident against it; the
// script host's screen.ocr goes through the same capture path, so each
// screen.ocr call takes a fresh screenshot.
func NewPlanEngine(plan *planmodel.Plan, dev *device.Guarded, identifier *perception.Identifier, sink perception.DebugSink, stepSleep time.Duration) *PlanEngine {
	pe := &PlanEngine{
		Plan:       plan,
		Screen:     NewScreenEngine(plan),
		Device:     dev,
		Identifier: identifier,
		Sink:       sink,
		StepSleep:  stepSleep,
	}
	pe.Scripts = scripthost.New(dev, identifier.OCR, pe.captureFrame)
	return pe
}

func (pe *PlanEngine) captureFrame(ctx context.Context) (*perception.Gray64, error) {
	raw, err := pe.Device.CaptureFramebuffer(ctx)
	if err != nil {
		return nil, err
	}
	img, err := decodePNG(raw)
	if err != nil {
		return nil, err
	}
	frame := perception.ToGray64(img)
	pe.lastFrame = frame
	return frame, nil
}

// NavigateTo is the main driver loop: compute a path, then repeatedly
// Identify the current screen or Navigate one step, sleeping StepSleep
// between iterations, until the engine reports None.
func (pe *PlanEngine) NavigateTo(ctx context.Context, target string) error {
	if err := pe.Screen.SetNavigateTarget(target); err != nil {
		return err
	}

	for {
		action, err := pe.Screen.Step()
		if err != nil {
			return err
		}

		switch action {
		case ActionNone:
			return nil

		case ActionIdentify:
			if err := pe.doIdentify(ctx); err != nil {
				return err
			}

		case ActionNavigate:
			if err := pe.doNavigate(ctx); err != nil {
				return err
			}
			if err := pe.Screen.StepNavigate(); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pe.StepSleep):
		}
	}
}

func (pe *PlanEngine) doIdentify(ctx context.Context) error {
	curr := pe.Screen.State().Curr
	screen, ok := pe.Plan.Screens[curr]
	if !ok {
		return fmt.Errorf("engine: unknown screen %q", curr)
	}

	frame, err := pe.captureFrame(ctx)
	if err != nil {
		return fmt.Errorf("engine: capture frame for identify: %w", err)
	}

	matched, err := pe.Identifier.Evaluate(ctx, frame, screen.Ident)
	if err != nil {
		return fmt.Errorf("engine: evaluate idents for %q: %w", curr, err)
	}

	if pe.Sink != nil {
		pe.Sink.PushText(ctx, fmt.Sprintf("identify %q: matched=%v", curr, matched))
	}

	if !matched {
		planlog.WarnF("engine", "screen did not identify, retrying next step", map[string]interface{}{"screen": curr})
		return nil
	}
	return pe.Screen.MarkIdentified(curr)
}

func (pe *PlanEngine) doNavigate(ctx context.Context) error {
	step, ok := pe.Screen.PendingStep()
	if !ok {
		return ErrNoMoreSteps
	}

	to, err := pathfind.ToScreenTo(pe.Plan, pe.Screen.State().Curr, step.Via)
	if err != nil {
		return err
	}

	switch to.Kind {
	case planmodel.ScreenToScript:
		scriptPath := filepath.Join(pe.Plan.Workdir, to.Script)
		err := pe.Scripts.RunScript(ctx, scriptPath)
		if err == scripthost.ErrMissingRun {
			planlog.WarnF("engine", "routine script has no run(), skipping", map[string]interface{}{"script": to.Script})
			return nil
		}
		return err

	case planmodel.ScreenToActions:
		for _, action := range to.Actions {
			switch action.Kind {
			case planmodel.ActionTap:
				if err := pe.Device.Tap(ctx, action.X, action.Y); err != nil {
					return err
				}
			case planmodel.ActionBack:
				if err := pe.Device.Back(ctx); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("engine: unknown ScreenTo kind %v", to.Kind)
	}
}
