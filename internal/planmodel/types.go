// Package planmodel holds the plan's in-memory model: screens, screen
// groups, identifiers, navigation, schedules, and the TOML loader that
// builds them.
package planmodel

import "strings"

// Pos is an (x, y) screen coordinate.
type Pos struct {
	X, Y uint32
}

// Rect is an (x, y, width, height) screenshot region.
type Rect struct {
	X, Y, W, H uint32
}

// TextOperation is the closed set of OCR text comparisons. The set does
// not grow at runtime: every plan-authored comparison must be one of
// these four.
type TextOperation int

const (
	OpExact TextOperation = iota
	OpContains
	OpStartsWith
	OpEndsWith
)

func (op TextOperation) String() string {
	switch op {
	case OpExact:
		return "exact"
	case OpContains:
		return "contains"
	case OpStartsWith:
		return "starts-with"
	case OpEndsWith:
		return "ends-with"
	default:
		return "unknown"
	}
}

// Run evaluates the operation against observed OCR text and the plan
// author's target string.
func (op TextOperation) Run(text, target string) bool {
	switch op {
	case OpExact:
		return text == target
	case OpContains:
		return strings.Contains(text, target)
	case OpStartsWith:
		return strings.HasPrefix(text, target)
	case OpEndsWith:
		return strings.HasSuffix(text, target)
	default:
		return false
	}
}

// ScreenIdentKind tags which ScreenIdent variant is populated.
type ScreenIdentKind int

const (
	IdentRefMatch ScreenIdentKind = iota
	IdentImageMatch
	IdentOCR
)

// ScreenIdent is a tagged-variant predicate over a screenshot. Exactly
// one of the variant-specific field groups is populated, selected by
// Kind.
type ScreenIdent struct {
	Kind ScreenIdentKind

	// RefMatch
	Reference string
	RefRect   Rect

	// ImageMatch
	Image string
	ImPos Pos

	// OCR
	OCRText string
	OCROp   TextOperation
	OCRRect Rect
}

// ActionKind tags which Action variant is populated.
type ActionKind int

const (
	ActionTap ActionKind = iota
	ActionBack
)

// Action is a single device-level navigation step.
type Action struct {
	Kind ActionKind
	X, Y uint32
}

// ScreenToKind tags which ScreenTo variant is populated.
type ScreenToKind int

const (
	ScreenToScript ScreenToKind = iota
	ScreenToActions
)

// ScreenTo is either a routine script path or a literal action sequence.
type ScreenTo struct {
	Kind    ScreenToKind
	Script  string
	Actions []Action
}

// ScreenNavigation is the `nav` table shared by Screen and ScreenGroup.
type ScreenNavigation struct {
	To   map[string]ScreenTo
	Back bool
}

// Screen is a single named, visually identifiable application state.
type Screen struct {
	Ident    []ScreenIdent
	Nav      ScreenNavigation
	Routines []string
	Group    string // empty if ungrouped
}

// ScreenGroup is a set of peer screens sharing an outer frame; intra-group
// transitions do not touch the back-stack.
type ScreenGroup struct {
	Ident   []ScreenIdent
	Screens []string
	Nav     ScreenNavigation
}

// ScheduleActionKind tags which Schedule.Action variant is populated.
type ScheduleActionKind int

const (
	ScheduleRoutines ScheduleActionKind = iota
	ScheduleScript
)

// Schedule binds an invocation policy to routines or a script. Scheduler
// wake-up timing itself stays out of scope here; this only carries the
// declared policy through for an external scheduler or
// internal/schedule's RunOnce to consume.
type Schedule struct {
	ActionKind   ScheduleActionKind
	Routines     []string
	Script       string
	OnCalendar   string
	Interruptible bool
}

// Plan is the fully loaded, immutable plan document.
type Plan struct {
	Workdir         string
	Package         string
	Activity        string
	Screens         map[string]*Screen
	ScreenGroups    map[string]*ScreenGroup
	Schedules       []Schedule
	RoutineLocation map[string]string
}
