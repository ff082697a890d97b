package pathfind

import (
	"testing"

	"github.com/adbplan/planrunner/internal/planmodel"
)

func testPlan() *planmodel.Plan {
	return &planmodel.Plan{
		Screens: map[string]*planmodel.Screen{
			"start": {
				Nav: planmodel.ScreenNavigation{
					Back: false,
					To:   map[string]planmodel.ScreenTo{"menu": {Kind: planmodel.ScreenToScript, Script: "to_menu.lua"}},
				},
			},
			"menu": {
				Nav: planmodel.ScreenNavigation{
					Back: true,
					To:   map[string]planmodel.ScreenTo{"settings": {Kind: planmodel.ScreenToScript, Script: "to_settings.lua"}},
				},
			},
			"settings": {
				Nav: planmodel.ScreenNavigation{Back: true, To: map[string]planmodel.ScreenTo{}},
			},
			"tab_a": {
				Group: "tabs",
				Nav:   planmodel.ScreenNavigation{Back: true, To: map[string]planmodel.ScreenTo{}},
			},
			"tab_b": {
				Group: "tabs",
				Nav:   planmodel.ScreenNavigation{Back: true, To: map[string]planmodel.ScreenTo{}},
			},
			"end": {
				Nav: planmodel.ScreenNavigation{Back: false, To: map[string]planmodel.ScreenTo{}},
			},
		},
		ScreenGroups: map[string]*planmodel.ScreenGroup{
			"tabs": {
				Screens: []string{"tab_a", "tab_b"},
				Nav: planmodel.ScreenNavigation{
					Back: true,
					To: map[string]planmodel.ScreenTo{
						"end":   {Kind: planmodel.ScreenToActions},
						"tab_b": {Kind: planmodel.ScreenToScript, Script: "switch_to_tab_b.lua"},
					},
				},
			},
		},
	}
}

func TestToClearsBackStackWhenTargetNavBackFalse(t *testing.T) {
	plan := testPlan()
	s := ScreenState{Curr: "settings", Back: []string{"start", "menu"}}
	next, err := s.To(plan, "end")
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if next.Curr != "end" || len(next.Back) != 0 {
		t.Fatalf("expected cleared back-stack at end, got %+v", next)
	}
}

func TestToPushesCurrentWhenTargetNavBackTrue(t *testing.T) {
	plan := testPlan()
	s := ScreenState{Curr: "start"}
	next, err := s.To(plan, "menu")
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if next.Curr != "menu" || len(next.Back) != 1 || next.Back[0] != "start" {
		t.Fatalf("expected back-stack [start], got %+v", next)
	}
}

func TestToWithinGroupDoesNotPush(t *testing.T) {
	plan := testPlan()
	s := ScreenState{Curr: "tab_a", Back: []string{"menu"}}
	next, err := s.To(plan, "tab_b")
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if next.Curr != "tab_b" || len(next.Back) != 1 || next.Back[0] != "menu" {
		t.Fatalf("in-group nav must not touch the back-stack, got %+v", next)
	}
}

func TestToClearsBackStackEvenForInGroupTarget(t *testing.T) {
	plan := testPlan()
	plan.Screens["tab_c"] = &planmodel.Screen{
		Group: "tabs",
		Nav:   planmodel.ScreenNavigation{Back: false, To: map[string]planmodel.ScreenTo{}},
	}
	plan.ScreenGroups["tabs"].Screens = append(plan.ScreenGroups["tabs"].Screens, "tab_c")

	s := ScreenState{Curr: "tab_a", Back: []string{"menu"}}
	next, err := s.To(plan, "tab_c")
	if err != nil {
		t.Fatalf("To: %v", err)
	}
	if next.Curr != "tab_c" || len(next.Back) != 0 {
		t.Fatalf("expected nav.back=false to clear the stack even within a group, got %+v", next)
	}
}

func TestGoBackPopsStack(t *testing.T) {
	s := ScreenState{Curr: "settings", Back: []string{"start", "menu"}}
	next, err := s.GoBack()
	if err != nil {
		t.Fatalf("GoBack: %v", err)
	}
	if next.Curr != "menu" || len(next.Back) != 1 || next.Back[0] != "start" {
		t.Fatalf("expected curr=menu back=[start], got %+v", next)
	}
}

func TestGoBackOnEmptyStackErrors(t *testing.T) {
	s := ScreenState{Curr: "start"}
	if _, err := s.GoBack(); err != ErrEmptyBackStack {
		t.Fatalf("expected ErrEmptyBackStack, got %v", err)
	}
}

func TestSuccessorsOrder(t *testing.T) {
	plan := testPlan()
	s := ScreenState{Curr: "menu", Back: []string{"start"}}
	succs, err := Successors(plan, s)
	if err != nil {
		t.Fatalf("Successors: %v", err)
	}
	if len(succs) != 2 {
		t.Fatalf("expected 2 successors (back, settings), got %d", len(succs))
	}
	if succs[0].Via.Kind != SourceBack {
		t.Fatalf("expected Back to be generated first, got %+v", succs[0].Via)
	}
	if succs[1].Via.Kind != SourceTo || succs[1].Via.Target != "settings" {
		t.Fatalf("expected nav.to settings second, got %+v", succs[1].Via)
	}
}

func TestSuccessorsIncludeGroupSiblingsAndGroupTo(t *testing.T) {
	plan := testPlan()
	s := ScreenState{Curr: "tab_a", Back: []string{"menu"}}
	succs, err := Successors(plan, s)
	if err != nil {
		t.Fatalf("Successors: %v", err)
	}

	var sawSibling, sawGroupTo bool
	for _, succ := range succs {
		if succ.Via.Kind == SourceInGroupNavigation && succ.Via.Target == "tab_b" {
			sawSibling = true
		}
		if succ.Via.Kind == SourceGroupTo && succ.Via.Target == "end" && succ.Via.Group == "tabs" {
			sawGroupTo = true
		}
	}
	if !sawSibling {
		t.Errorf("expected an InGroupNavigation successor to tab_b")
	}
	if !sawGroupTo {
		t.Errorf("expected a GroupTo successor to end via group tabs")
	}
}

func TestFindPathSameScreenIsEmpty(t *testing.T) {
	plan := testPlan()
	path, err := FindPath(plan, ScreenState{Curr: "start"}, "start")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if len(path) != 0 {
		t.Fatalf("expected empty path, got %+v", path)
	}
}

func TestFindPathMultiHop(t *testing.T) {
	plan := testPlan()
	path, err := FindPath(plan, ScreenState{Curr: "start"}, "settings")
	if err != nil {
		t.Fatalf("FindPath: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("expected a 2-step path, got %d steps: %+v", len(path), path)
	}
	if path[0].State.Curr != "menu" || path[1].State.Curr != "settings" {
		t.Fatalf("unexpected path: %+v", path)
	}
}

func TestFindPathUnreachableReturnsErrPathNotFound(t *testing.T) {
	plan := testPlan()
	_, err := FindPath(plan, ScreenState{Curr: "settings"}, "tab_a")
	if err != ErrPathNotFound {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestToScreenToMaterializesBack(t *testing.T) {
	plan := testPlan()
	to, err := ToScreenTo(plan, "menu", Via{Kind: SourceBack})
	if err != nil {
		t.Fatalf("ToScreenTo: %v", err)
	}
	if to.Kind != planmodel.ScreenToActions || len(to.Actions) != 1 || to.Actions[0].Kind != planmodel.ActionBack {
		t.Fatalf("expected a single Back action, got %+v", to)
	}
}

func TestToScreenToMaterializesGroupTo(t *testing.T) {
	plan := testPlan()
	to, err := ToScreenTo(plan, "tab_a", Via{Kind: SourceGroupTo, Target: "end", Group: "tabs"})
	if err != nil {
		t.Fatalf("ToScreenTo: %v", err)
	}
	if to.Kind != planmodel.ScreenToActions {
		t.Fatalf("unexpected ScreenTo: %+v", to)
	}
}

func TestToScreenToMaterializesInGroupNavigationViaGroupNavTo(t *testing.T) {
	plan := testPlan()
	to, err := ToScreenTo(plan, "tab_a", Via{Kind: SourceInGroupNavigation, Target: "tab_b", Group: "tabs"})
	if err != nil {
		t.Fatalf("ToScreenTo: %v", err)
	}
	if to.Kind != planmodel.ScreenToScript || to.Script != "switch_to_tab_b.lua" {
		t.Fatalf("expected the group's own nav.to[tab_b] entry, got %+v", to)
	}
}
