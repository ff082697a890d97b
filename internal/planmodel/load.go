package planmodel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Warning is a non-fatal plan validation problem, logged at load time.
// Dangling cross-references surface here rather than as load errors;
// navigating to one fails at runtime instead.
type Warning struct {
	Message string
}

// ParseError wraps a fatal error encountered while parsing a plan document
// at startup.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse plan %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads workdir/plan.toml, builds the in-memory Plan (flattening
// subscreens into screen groups, injecting a synthetic "end" screen if
// absent), and returns any validation warnings alongside it.
func Load(workdir string) (*Plan, []Warning, error) {
	path := filepath.Join(workdir, "plan.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}

	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}

	plan, err := buildPlan(workdir, raw)
	if err != nil {
		return nil, nil, &ParseError{Path: path, Err: err}
	}

	warnings := validate(plan)
	return plan, warnings, nil
}

func buildPlan(workdir string, raw map[string]interface{}) (*Plan, error) {
	pkg, _ := raw["package"].(string)
	activity, _ := raw["activity"].(string)
	if pkg == "" {
		return nil, fmt.Errorf("missing required top-level field \"package\"")
	}
	if activity == "" {
		return nil, fmt.Errorf("missing required top-level field \"activity\"")
	}

	screensRaw, ok := asTable(raw["screens"])
	if !ok {
		return nil, fmt.Errorf("missing or invalid [screens] table")
	}

	plan := &Plan{
		Workdir:         workdir,
		Package:         pkg,
		Activity:        activity,
		Screens:         map[string]*Screen{},
		ScreenGroups:    map[string]*ScreenGroup{},
		RoutineLocation: map[string]string{},
	}

	// Deterministic order for warnings/tests: sort screen names.
	names := make([]string, 0, len(screensRaw))
	for name := range screensRaw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def, ok := asTable(screensRaw[name])
		if !ok {
			return nil, fmt.Errorf("screen %q: expected a table", name)
		}
		if err := addScreenDef(plan, name, def); err != nil {
			return nil, fmt.Errorf("screen %q: %w", name, err)
		}
	}

	if _, ok := plan.Screens["start"]; !ok {
		return nil, fmt.Errorf("plan has no \"start\" screen")
	}
	if _, ok := plan.Screens["end"]; !ok {
		plan.Screens["end"] = &Screen{
			Ident:    nil,
			Nav:      ScreenNavigation{To: map[string]ScreenTo{}, Back: false},
			Routines: nil,
		}
	}

	if schedulesRaw, ok := raw["schedules"].([]interface{}); ok {
		for i, item := range schedulesRaw {
			tbl, ok := asTable(item)
			if !ok {
				return nil, fmt.Errorf("schedules[%d]: expected a table", i)
			}
			sched, err := parseSchedule(tbl)
			if err != nil {
				return nil, fmt.Errorf("schedules[%d]: %w", i, err)
			}
			plan.Schedules = append(plan.Schedules, sched)
		}
	}

	return plan, nil
}

// addScreenDef inserts a screen table into plan.Screens (and, for a
// subscreens table, into plan.ScreenGroups too): the group inherits the
// parent's ident and group-level nav; each member inherits `back` from
// the parent and supplies its own `to`/`routines`.
func addScreenDef(plan *Plan, name string, def map[string]interface{}) error {
	nav, err := parseNav(def)
	if err != nil {
		return err
	}

	if subscreensRaw, ok := asTable(def["subscreens"]); ok {
		ident, err := parseIdentList(def["ident"])
		if err != nil {
			return err
		}

		memberNames := make([]string, 0, len(subscreensRaw))
		for subname := range subscreensRaw {
			memberNames = append(memberNames, subname)
		}
		sort.Strings(memberNames)

		for _, subname := range memberNames {
			subdef, ok := asTable(subscreensRaw[subname])
			if !ok {
				return fmt.Errorf("subscreens[%q]: expected a table", subname)
			}
			subIdent, err := parseIdentList(subdef["ident"])
			if err != nil {
				return fmt.Errorf("subscreens[%q]: %w", subname, err)
			}
			subTo, err := parseToMap(subdef["to"])
			if err != nil {
				return fmt.Errorf("subscreens[%q]: %w", subname, err)
			}
			routines := parseStringList(subdef["routines"])
			for _, r := range routines {
				plan.RoutineLocation[r] = subname
			}
			plan.Screens[subname] = &Screen{
				Ident:    subIdent,
				Nav:      ScreenNavigation{To: subTo, Back: nav.Back},
				Routines: routines,
				Group:    name,
			}
		}

		plan.ScreenGroups[name] = &ScreenGroup{
			Ident:   ident,
			Screens: memberNames,
			Nav:     nav,
		}
		return nil
	}

	ident, err := parseIdentList(def["ident"])
	if err != nil {
		return err
	}
	routines := parseStringList(def["routines"])
	for _, r := range routines {
		plan.RoutineLocation[r] = name
	}
	plan.Screens[name] = &Screen{
		Ident:    ident,
		Nav:      nav,
		Routines: routines,
	}
	return nil
}

func parseNav(def map[string]interface{}) (ScreenNavigation, error) {
	to, err := parseToMap(def["to"])
	if err != nil {
		return ScreenNavigation{}, err
	}
	back, _ := def["back"].(bool)
	return ScreenNavigation{To: to, Back: back}, nil
}

func parseToMap(v interface{}) (map[string]ScreenTo, error) {
	out := map[string]ScreenTo{}
	tbl, ok := asTable(v)
	if !ok {
		return out, nil
	}
	for target, raw := range tbl {
		st, err := parseScreenTo(raw)
		if err != nil {
			return nil, fmt.Errorf("to[%q]: %w", target, err)
		}
		out[target] = st
	}
	return out, nil
}

func parseScreenTo(v interface{}) (ScreenTo, error) {
	switch val := v.(type) {
	case string:
		return ScreenTo{Kind: ScreenToScript, Script: val}, nil
	case []interface{}:
		actions := make([]Action, 0, len(val))
		for i, item := range val {
			tbl, ok := asTable(item)
			if !ok {
				return ScreenTo{}, fmt.Errorf("actions[%d]: expected a table", i)
			}
			act, err := parseAction(tbl)
			if err != nil {
				return ScreenTo{}, fmt.Errorf("actions[%d]: %w", i, err)
			}
			actions = append(actions, act)
		}
		return ScreenTo{Kind: ScreenToActions, Actions: actions}, nil
	default:
		return ScreenTo{}, fmt.Errorf("expected script path or action list")
	}
}

func parseAction(tbl map[string]interface{}) (Action, error) {
	typ, _ := tbl["type"].(string)
	switch typ {
	case "tap":
		x, err := asUint32(tbl["0"])
		if err != nil {
			return Action{}, fmt.Errorf("tap: %w", err)
		}
		y, err := asUint32(tbl["1"])
		if err != nil {
			return Action{}, fmt.Errorf("tap: %w", err)
		}
		return Action{Kind: ActionTap, X: x, Y: y}, nil
	case "back":
		return Action{Kind: ActionBack}, nil
	default:
		return Action{}, fmt.Errorf("unknown action type %q", typ)
	}
}

// parseIdentList accepts either a single ident table or an array of ident
// tables, normalizing to a slice — a scalar ident value is accepted
// anywhere a sequence is expected.
func parseIdentList(v interface{}) ([]ScreenIdent, error) {
	if v == nil {
		return nil, nil
	}
	if arr, ok := v.([]interface{}); ok {
		out := make([]ScreenIdent, 0, len(arr))
		for i, item := range arr {
			tbl, ok := asTable(item)
			if !ok {
				return nil, fmt.Errorf("ident[%d]: expected a table", i)
			}
			ident, err := parseScreenIdent(tbl)
			if err != nil {
				return nil, fmt.Errorf("ident[%d]: %w", i, err)
			}
			out = append(out, ident)
		}
		return out, nil
	}
	tbl, ok := asTable(v)
	if !ok {
		return nil, fmt.Errorf("ident: expected a table or array of tables")
	}
	ident, err := parseScreenIdent(tbl)
	if err != nil {
		return nil, err
	}
	return []ScreenIdent{ident}, nil
}

// parseScreenIdent discriminates RefMatch/ImageMatch/Ocr by field presence
// ("ref", "image", or "ocr").
func parseScreenIdent(tbl map[string]interface{}) (ScreenIdent, error) {
	switch {
	case tbl["ref"] != nil:
		ref, _ := tbl["ref"].(string)
		rect, err := asRect(tbl["rect"])
		if err != nil {
			return ScreenIdent{}, fmt.Errorf("ref-match: %w", err)
		}
		return ScreenIdent{Kind: IdentRefMatch, Reference: ref, RefRect: rect}, nil
	case tbl["image"] != nil:
		img, _ := tbl["image"].(string)
		pos, err := asPos(tbl["pos"])
		if err != nil {
			return ScreenIdent{}, fmt.Errorf("image-match: %w", err)
		}
		return ScreenIdent{Kind: IdentImageMatch, Image: img, ImPos: pos}, nil
	case tbl["ocr"] != nil:
		text, _ := tbl["ocr"].(string)
		opStr, _ := tbl["operation"].(string)
		op, err := parseTextOperation(opStr)
		if err != nil {
			return ScreenIdent{}, err
		}
		rect, err := asRect(tbl["rect"])
		if err != nil {
			return ScreenIdent{}, fmt.Errorf("ocr: %w", err)
		}
		return ScreenIdent{Kind: IdentOCR, OCRText: text, OCROp: op, OCRRect: rect}, nil
	default:
		return ScreenIdent{}, fmt.Errorf("ident table has none of ref/image/ocr")
	}
}

func parseTextOperation(s string) (TextOperation, error) {
	switch s {
	case "exact":
		return OpExact, nil
	case "contains":
		return OpContains, nil
	case "starts-with":
		return OpStartsWith, nil
	case "ends-with":
		return OpEndsWith, nil
	default:
		return 0, fmt.Errorf("unknown text operation %q", s)
	}
}

func parseSchedule(tbl map[string]interface{}) (Schedule, error) {
	onCalendar, _ := tbl["on_calendar"].(string)
	interruptible, _ := tbl["interruptible"].(bool)
	sched := Schedule{OnCalendar: onCalendar, Interruptible: interruptible}

	if script, ok := tbl["script"].(string); ok {
		sched.ActionKind = ScheduleScript
		sched.Script = script
		return sched, nil
	}
	if routines, ok := tbl["routines"]; ok {
		sched.ActionKind = ScheduleRoutines
		sched.Routines = parseStringList(routines)
		return sched, nil
	}
	return Schedule{}, fmt.Errorf("schedule has neither \"routines\" nor \"script\"")
}

func parseStringList(v interface{}) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asTable(v interface{}) (map[string]interface{}, bool) {
	tbl, ok := v.(map[string]interface{})
	return tbl, ok
}

func asUint32(v interface{}) (uint32, error) {
	switch n := v.(type) {
	case int64:
		return uint32(n), nil
	case int:
		return uint32(n), nil
	case float64:
		return uint32(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asRect(v interface{}) (Rect, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 4 {
		return Rect{}, fmt.Errorf("expected a 4-element [x, y, w, h] array")
	}
	x, err := asUint32(arr[0])
	if err != nil {
		return Rect{}, err
	}
	y, err := asUint32(arr[1])
	if err != nil {
		return Rect{}, err
	}
	w, err := asUint32(arr[2])
	if err != nil {
		return Rect{}, err
	}
	h, err := asUint32(arr[3])
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: x, Y: y, W: w, H: h}, nil
}

func asPos(v interface{}) (Pos, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 2 {
		return Pos{}, fmt.Errorf("expected a 2-element [x, y] array")
	}
	x, err := asUint32(arr[0])
	if err != nil {
		return Pos{}, err
	}
	y, err := asUint32(arr[1])
	if err != nil {
		return Pos{}, err
	}
	return Pos{X: x, Y: y}, nil
}

// validate checks the plan's cross-reference invariants and returns
// warnings for dangling references rather than failing the load.
func validate(plan *Plan) []Warning {
	var warnings []Warning

	checkTarget := func(from, target string) {
		if _, ok := plan.Screens[target]; !ok {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("screen %q: nav target %q does not exist", from, target),
			})
		}
	}

	names := sortedScreenNames(plan)
	for _, name := range names {
		screen := plan.Screens[name]
		for target := range screen.Nav.To {
			checkTarget(name, target)
		}
	}

	groupNames := make([]string, 0, len(plan.ScreenGroups))
	for name := range plan.ScreenGroups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)
	for _, name := range groupNames {
		group := plan.ScreenGroups[name]
		for _, member := range group.Screens {
			if _, ok := plan.Screens[member]; !ok {
				warnings = append(warnings, Warning{
					Message: fmt.Sprintf("group %q: member screen %q does not exist", name, member),
				})
			}
		}
		for target := range group.Nav.To {
			checkTarget("group:"+name, target)
		}
	}

	for routine, location := range plan.RoutineLocation {
		if _, ok := plan.Screens[location]; !ok {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("routine %q: location screen %q does not exist", routine, location),
			})
		}
	}

	return warnings
}

func sortedScreenNames(plan *Plan) []string {
	names := make([]string, 0, len(plan.Screens))
	for name := range plan.Screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
