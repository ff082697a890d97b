// Package device implements the Device capability: tap, back, app
// launch/stop, and framebuffer capture, shelled out to the real adb binary.
package device

import (
	"context"
	"fmt"
)

// Device is the capability the engine drives a screen through. The core
// never dials ADB itself: this interface is the injection point.
type Device interface {
	Tap(ctx context.Context, x, y uint32) error
	Back(ctx context.Context) error
	StartApp(ctx context.Context, pkg, activity string) error
	StopApp(ctx context.Context, pkg string) error
	CaptureFramebuffer(ctx context.Context) ([]byte, error)
}

// ConnectError wraps a failed ADB connection attempt after retries are
// exhausted.
type ConnectError struct {
	Addr    string
	Retries int
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("adb: could not connect to %s after %d attempt(s): %v", e.Addr, e.Retries+1, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }
