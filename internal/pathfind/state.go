// Package pathfind implements the screen-graph navigator: ScreenState, its
// transition function, and BFS shortest-path search over it.
package pathfind

import (
	"fmt"

	"github.com/adbplan/planrunner/internal/planmodel"
)

// ScreenState is the pathfinding graph node: the current screen plus the
// back-stack accumulated to reach it.
type ScreenState struct {
	Curr string
	Back []string
}

func (s ScreenState) key() string {
	return fmt.Sprintf("%s<-%v", s.Curr, s.Back)
}

func cloneStack(stack []string) []string {
	out := make([]string, len(stack))
	copy(out, stack)
	return out
}

// groupOf returns the owning group name for a screen, or "" if ungrouped.
func groupOf(plan *planmodel.Plan, name string) string {
	if screen, ok := plan.Screens[name]; ok {
		return screen.Group
	}
	return ""
}

// To computes the successor state reached by navigating from s.Curr to
// target. If target's nav.back is false, the back-stack is cleared
// entirely regardless of grouping. Otherwise s.Curr is pushed onto the
// back-stack UNLESS s.Curr and target share a non-empty group.
func (s ScreenState) To(plan *planmodel.Plan, target string) (ScreenState, error) {
	targetScreen, ok := plan.Screens[target]
	if !ok {
		return ScreenState{}, fmt.Errorf("pathfind: unknown screen %q", target)
	}

	if !targetScreen.Nav.Back {
		return ScreenState{Curr: target, Back: nil}, nil
	}

	currGroup := groupOf(plan, s.Curr)
	targetGroup := groupOf(plan, target)
	sameGroup := currGroup != "" && currGroup == targetGroup

	if sameGroup {
		return ScreenState{Curr: target, Back: cloneStack(s.Back)}, nil
	}
	return ScreenState{Curr: target, Back: append(cloneStack(s.Back), s.Curr)}, nil
}

// GoBack pops the back-stack, returning the ErrEmptyBackStack sentinel if
// there is nothing to pop.
func (s ScreenState) GoBack() (ScreenState, error) {
	if len(s.Back) == 0 {
		return ScreenState{}, ErrEmptyBackStack
	}
	n := len(s.Back) - 1
	return ScreenState{Curr: s.Back[n], Back: cloneStack(s.Back[:n])}, nil
}

// ErrEmptyBackStack is returned by GoBack when the back-stack is already
// empty.
var ErrEmptyBackStack = fmt.Errorf("pathfind: back-stack is empty")
