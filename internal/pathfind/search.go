package pathfind

import (
	"fmt"

	"github.com/adbplan/planrunner/internal/planmodel"
)

// SourceKind tags how a successor state was reached: Begin/To/Back/
// InGroupNavigation/GroupTo.
type SourceKind int

const (
	SourceBegin SourceKind = iota
	SourceTo
	SourceBack
	SourceInGroupNavigation
	SourceGroupTo
)

// Via records how a particular ScreenState was reached, so the driver loop
// can later materialize the concrete ScreenTo (script or actions) that
// should be executed to make that transition for real.
type Via struct {
	Kind SourceKind
	// Target is the screen name (SourceTo) or nav.to key (SourceInGroupNavigation,
	// SourceGroupTo) that the transition step was declared against.
	Target string
	// Group is set for SourceInGroupNavigation and SourceGroupTo: the owning
	// group whose nav.to entry fires.
	Group string
}

// Successor is one state reachable in a single step, tagged with how it
// was reached.
type Successor struct {
	State ScreenState
	Via   Via
}

// Successors enumerates every state reachable from state in one step, in
// a fixed priority order: Back (if nav.back is set and the stack is
// non-empty), then each of the current screen's own nav.to targets, then
// — if the current screen belongs to a group — each sibling via plain
// in-group navigation, then each of the group's own nav.to targets.
func Successors(plan *planmodel.Plan, state ScreenState) ([]Successor, error) {
	screen, ok := plan.Screens[state.Curr]
	if !ok {
		return nil, fmt.Errorf("pathfind: unknown screen %q", state.Curr)
	}

	var out []Successor

	if screen.Nav.Back && len(state.Back) > 0 {
		next, err := state.GoBack()
		if err != nil {
			return nil, err
		}
		out = append(out, Successor{State: next, Via: Via{Kind: SourceBack}})
	}

	for target := range screen.Nav.To {
		next, err := state.To(plan, target)
		if err != nil {
			return nil, err
		}
		out = append(out, Successor{State: next, Via: Via{Kind: SourceTo, Target: target}})
	}

	if screen.Group != "" {
		group, ok := plan.ScreenGroups[screen.Group]
		if !ok {
			return nil, fmt.Errorf("pathfind: screen %q references unknown group %q", state.Curr, screen.Group)
		}
		for _, sibling := range group.Screens {
			if sibling == state.Curr {
				continue
			}
			next, err := state.To(plan, sibling)
			if err != nil {
				return nil, err
			}
			out = append(out, Successor{State: next, Via: Via{Kind: SourceInGroupNavigation, Target: sibling, Group: screen.Group}})
		}
		for target := range group.Nav.To {
			next, err := state.To(plan, target)
			if err != nil {
				return nil, err
			}
			out = append(out, Successor{State: next, Via: Via{Kind: SourceGroupTo, Target: target, Group: screen.Group}})
		}
	}

	return out, nil
}

// ErrPathNotFound indicates no sequence of navigation steps reaches the
// target screen from state.
var ErrPathNotFound = fmt.Errorf("pathfind: no path to target screen")

// Step is one hop of a computed path: the state reached, and how it was
// reached (for materializing the concrete ScreenTo to execute).
type Step struct {
	State ScreenState
	Via   Via
}

// FindPath runs breadth-first search over the screen graph from start to
// any state whose Curr equals target, returning the full step sequence.
// BFS is hand-rolled: no graph or pathfinding library fits this shortest-
// path-over-a-small-graph problem well enough to justify the dependency
// (see DESIGN.md).
func FindPath(plan *planmodel.Plan, start ScreenState, target string) ([]Step, error) {
	if start.Curr == target {
		return nil, nil
	}

	type queued struct {
		state ScreenState
		path  []Step
	}

	visited := map[string]bool{start.key(): true}
	queue := []queued{{state: start, path: nil}}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		succs, err := Successors(plan, curr.state)
		if err != nil {
			return nil, err
		}

		for _, succ := range succs {
			if visited[succ.State.key()] {
				continue
			}
			visited[succ.State.key()] = true

			path := make([]Step, len(curr.path), len(curr.path)+1)
			copy(path, curr.path)
			path = append(path, Step{State: succ.State, Via: succ.Via})

			if succ.State.Curr == target {
				return path, nil
			}
			queue = append(queue, queued{state: succ.State, path: path})
		}
	}

	return nil, ErrPathNotFound
}

// ToScreenTo materializes the concrete ScreenTo (script path or action
// list) that a pathfinding step's Via tag corresponds to, resolving
// InGroupNavigation and GroupTo alike back to the owning group's nav.to
// table (a lone screen never carries its own copy of a group transition).
func ToScreenTo(plan *planmodel.Plan, fromScreen string, via Via) (planmodel.ScreenTo, error) {
	switch via.Kind {
	case SourceBack:
		return planmodel.ScreenTo{Kind: planmodel.ScreenToActions, Actions: []planmodel.Action{{Kind: planmodel.ActionBack}}}, nil
	case SourceTo:
		screen, ok := plan.Screens[fromScreen]
		if !ok {
			return planmodel.ScreenTo{}, fmt.Errorf("pathfind: unknown screen %q", fromScreen)
		}
		to, ok := screen.Nav.To[via.Target]
		if !ok {
			return planmodel.ScreenTo{}, fmt.Errorf("pathfind: screen %q has no nav.to %q", fromScreen, via.Target)
		}
		return to, nil
	case SourceInGroupNavigation, SourceGroupTo:
		group, ok := plan.ScreenGroups[via.Group]
		if !ok {
			return planmodel.ScreenTo{}, fmt.Errorf("pathfind: unknown group %q", via.Group)
		}
		to, ok := group.Nav.To[via.Target]
		if !ok {
			return planmodel.ScreenTo{}, fmt.Errorf("pathfind: group %q has no nav.to %q", via.Group, via.Target)
		}
		return to, nil
	default:
		return planmodel.ScreenTo{}, fmt.Errorf("pathfind: cannot materialize the begin state")
	}
}
