// Package schedule validates a plan's `on_calendar` cron expressions and
// drives a single invocation of a schedule's routines or script. Scheduler
// wake-up timing itself — deciding *when* to fire — stays out of scope
// here; this package only validates syntax on request (planmodel.Load
// does not call it) and executes one firing on request.
package schedule

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/adbplan/planrunner/internal/engine"
	"github.com/adbplan/planrunner/internal/planlog"
	"github.com/adbplan/planrunner/internal/planmodel"
	"github.com/adbplan/planrunner/internal/scripthost"
)

// ValidateOnCalendar checks every schedule's on_calendar expression is a
// syntactically valid cron string, returning one error per invalid entry.
func ValidateOnCalendar(plan *planmodel.Plan) []error {
	var errs []error
	for i, sched := range plan.Schedules {
		if sched.OnCalendar == "" {
			continue
		}
		if !gronx.IsValid(sched.OnCalendar) {
			errs = append(errs, fmt.Errorf("schedule[%d]: invalid on_calendar expression %q", i, sched.OnCalendar))
		}
	}
	return errs
}

// Runner drives one schedule firing against a PlanEngine.
type Runner struct {
	Plan    *planmodel.Plan
	Engine  *engine.PlanEngine
	Scripts *scripthost.Host
}

// RunOnce executes sched's action once: a script runs directly (no screen
// to navigate to first), routines resolve to their owning screen via
// plan.RoutineLocation and are reached with a NavigateTo before running.
// Each firing gets its own run ID, carried through this package's log
// lines and routine errors so firings can be correlated in the shared log
// stream; log lines written by the engine during NavigateTo do not carry
// it.
func (r *Runner) RunOnce(ctx context.Context, sched planmodel.Schedule) error {
	runID := uuid.New().String()
	planlog.InfoF("schedule", "run started", map[string]interface{}{"run_id": runID, "action": sched.ActionKind})

	switch sched.ActionKind {
	case planmodel.ScheduleScript:
		scriptPath := filepath.Join(r.Plan.Workdir, sched.Script)
		err := r.Scripts.RunScript(ctx, scriptPath)
		if err == scripthost.ErrMissingRun {
			planlog.WarnF("schedule", "scheduled script has no run(), skipping", map[string]interface{}{"run_id": runID, "script": sched.Script})
			return nil
		}
		return err

	case planmodel.ScheduleRoutines:
		for _, routine := range sched.Routines {
			if err := r.runRoutine(ctx, runID, routine); err != nil {
				return fmt.Errorf("schedule: run %s: routine %q: %w", runID, routine, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("schedule: unknown action kind %v", sched.ActionKind)
	}
}

func (r *Runner) runRoutine(ctx context.Context, runID, routine string) error {
	screenName, ok := r.Plan.RoutineLocation[routine]
	if !ok {
		return fmt.Errorf("routine %q has no known screen location", routine)
	}
	if err := r.Engine.NavigateTo(ctx, screenName); err != nil {
		return fmt.Errorf("navigate to %q: %w", screenName, err)
	}

	scriptPath := filepath.Join(r.Plan.Workdir, routine)
	err := r.Scripts.RunScript(ctx, scriptPath)
	if err == scripthost.ErrMissingRun {
		planlog.WarnF("schedule", "routine has no run(), skipping", map[string]interface{}{"run_id": runID, "routine": routine})
		return nil
	}
	return err
}
