// Package scripthost embeds a Lua VM exposing device and screen globals to
// plan routine scripts. device.tap/back and screen.ocr/try_idents are Lua
// closures capturing a *device.Guarded, a perception.OCREngine and a frame
// capture function.
package scripthost

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/adbplan/planrunner/internal/device"
	"github.com/adbplan/planrunner/internal/perception"
)

// ErrMissingRun is returned by RunScript when the script defines no `run`
// function — a recoverable condition, not a fatal one.
var ErrMissingRun = errors.New("scripthost: script defines no run() function")

// RuntimeError wraps a Lua error raised while running a script's run()
// function. Unlike ErrMissingRun, this is fatal to the navigation attempt.
type RuntimeError struct {
	Script string
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("scripthost: %s: %v", e.Script, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Host holds the capabilities exposed to scripts. It keeps no Lua VM of its
// own: each RunScript call runs in a new VM, so globals set by one script
// are not visible to the next.
type Host struct {
	device  *device.Guarded
	ocr     perception.OCREngine
	capture func(ctx context.Context) (*perception.Gray64, error)
}

// New builds a Host bound to dev for device.tap/back and to ocrEngine plus
// capture for screen.ocr/try_idents. capture returns the current frame as
// grayscale; screen.ocr calls it on every invocation, so each call works on
// a fresh screenshot.
func New(dev *device.Guarded, ocrEngine perception.OCREngine, capture func(ctx context.Context) (*perception.Gray64, error)) *Host {
	return &Host{device: dev, ocr: ocrEngine, capture: capture}
}

// RunScript loads path into a new Lua VM (so no `run` global from a
// previous invocation is present), executes it, and calls run() if defined. A script with no run() surfaces
// as ErrMissingRun; a Lua runtime error surfaces as *RuntimeError.
func (h *Host) RunScript(ctx context.Context, path string) error {
	L := lua.NewState()
	defer L.Close()

	h.registerGlobals(ctx, L)

	if err := L.DoFile(path); err != nil {
		return &RuntimeError{Script: path, Err: err}
	}

	runFn := L.GetGlobal("run")
	if runFn == lua.LNil {
		return ErrMissingRun
	}
	if runFn.Type() != lua.LTFunction {
		return ErrMissingRun
	}

	if err := L.CallByParam(lua.P{Fn: runFn, NRet: 0, Protect: true}); err != nil {
		return &RuntimeError{Script: path, Err: err}
	}
	return nil
}

func (h *Host) registerGlobals(ctx context.Context, L *lua.LState) {
	deviceTbl := L.NewTable()
	L.SetField(deviceTbl, "tap", L.NewFunction(func(L *lua.LState) int {
		x := L.CheckInt(1)
		y := L.CheckInt(2)
		if err := h.device.Tap(ctx, uint32(x), uint32(y)); err != nil {
			L.RaiseError("device.tap: %v", err)
		}
		return 0
	}))
	L.SetField(deviceTbl, "back", L.NewFunction(func(L *lua.LState) int {
		if err := h.device.Back(ctx); err != nil {
			L.RaiseError("device.back: %v", err)
		}
		return 0
	}))
	L.SetGlobal("device", deviceTbl)

	screenTbl := L.NewTable()
	L.SetField(screenTbl, "ocr", L.NewFunction(func(L *lua.LState) int {
		x := L.CheckInt(1)
		y := L.CheckInt(2)
		w := L.CheckInt(3)
		hgt := L.CheckInt(4)

		if h.ocr == nil {
			L.RaiseError("screen.ocr: no OCR engine configured")
			return 0
		}
		frame, err := h.capture(ctx)
		if err != nil {
			L.RaiseError("screen.ocr: capture: %v", err)
			return 0
		}
		region := frame.Crop(x, y, w, hgt)
		text, err := h.ocr.RecognizeText(ctx, region)
		if err != nil {
			L.RaiseError("screen.ocr: %v", err)
			return 0
		}
		L.Push(lua.LString(text))
		return 1
	}))
	// screen.try_idents is reserved for popup identification, a feature the
	// plan engine does not implement yet (mark_identified only supports the
	// current screen — see internal/engine). Kept as a documented no-op so
	// existing scripts calling it do not fail outright.
	L.SetField(screenTbl, "try_idents", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LFalse)
		return 1
	}))
	L.SetGlobal("screen", screenTbl)
}
