// Package engine drives the plan: ScreenEngine tracks pathfinding state and
// decides the next action kind, PlanEngine executes that decision against a
// real device, perception pipeline, and script host.
package engine

import (
	"fmt"

	"github.com/adbplan/planrunner/internal/pathfind"
	"github.com/adbplan/planrunner/internal/planmodel"
)

// ActionKind is the decision ScreenEngine.Step returns each iteration:
// Identify the current screen, Navigate one step toward the target, or
// None (target reached / nothing queued).
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionIdentify
	ActionNavigate
)

// ErrNoMoreSteps is returned by StepNavigate (and by PlanEngine's navigate
// step) when the navigation queue is empty.
var ErrNoMoreSteps = fmt.Errorf("engine: no more navigation steps queued")

// ErrPopupsNotSupported is returned by MarkIdentified when asked to mark a
// screen other than the current one identified. Popup identification (a
// screen overlaying the current one without a transition) is not
// implemented; this is a recoverable error rather than a panic so callers
// can decide how to handle it.
var ErrPopupsNotSupported = fmt.Errorf("engine: marking a non-current screen identified is not supported (popups)")

// ScreenEngine tracks the current pathfinding state and the queued
// navigation plan, deciding one action at a time.
type ScreenEngine struct {
	plan    *planmodel.Plan
	state   pathfind.ScreenState
	queue   []pathfind.Step // pending steps, consumed from the front
	idented bool
}

// NewScreenEngine starts the engine at the plan's "start" screen.
func NewScreenEngine(plan *planmodel.Plan) *ScreenEngine {
	return &ScreenEngine{
		plan:  plan,
		state: pathfind.ScreenState{Curr: "start"},
	}
}

// State returns the engine's current pathfinding state.
func (e *ScreenEngine) State() pathfind.ScreenState { return e.state }

// SetNavigateTarget computes a path from the current state to target and
// queues it, replacing any in-flight plan.
func (e *ScreenEngine) SetNavigateTarget(target string) error {
	path, err := pathfind.FindPath(e.plan, e.state, target)
	if err != nil {
		return err
	}
	e.queue = path
	e.idented = false
	return nil
}

// Step decides the next action: Identify if the current screen has idents
// and hasn't been identified yet this arrival; otherwise Navigate if a
// step is queued; otherwise None.
func (e *ScreenEngine) Step() (ActionKind, error) {
	screen, ok := e.plan.Screens[e.state.Curr]
	if !ok {
		return ActionNone, fmt.Errorf("engine: unknown screen %q", e.state.Curr)
	}

	if !e.idented && len(screen.Ident) > 0 {
		return ActionIdentify, nil
	}

	if len(e.queue) == 0 {
		return ActionNone, nil
	}
	return ActionNavigate, nil
}

// MarkIdentified records that name has been confirmed as the current
// screen by perception. Only the current screen may be marked; popup
// identification is not implemented (see DESIGN.md).
func (e *ScreenEngine) MarkIdentified(name string) error {
	if name != e.state.Curr {
		return ErrPopupsNotSupported
	}
	e.idented = true
	return nil
}

// PendingStep returns the next queued pathfinding step without consuming
// it, or ok=false if the queue is empty.
func (e *ScreenEngine) PendingStep() (pathfind.Step, bool) {
	if len(e.queue) == 0 {
		return pathfind.Step{}, false
	}
	return e.queue[0], true
}

// StepNavigate consumes the front of the queue and advances the engine's
// state to it, resetting idented so the new screen is identified before
// further navigation.
func (e *ScreenEngine) StepNavigate() error {
	if len(e.queue) == 0 {
		return ErrNoMoreSteps
	}
	step := e.queue[0]
	e.queue = e.queue[1:]
	e.state = step.State
	e.idented = false
	return nil
}
