package device

import (
	"context"
	"sync"
)

// Guarded wraps a Device behind a mutex so the script host and the driver
// loop's own action execution never race on the same physical device. Each
// call takes the lock only for the duration of the underlying device call;
// callers must never hold the lock across a script invocation or a sleep.
type Guarded struct {
	mu     sync.Mutex
	device Device
}

// NewGuarded wraps device for concurrent use.
func NewGuarded(device Device) *Guarded {
	return &Guarded{device: device}
}

func (g *Guarded) Tap(ctx context.Context, x, y uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.device.Tap(ctx, x, y)
}

func (g *Guarded) Back(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.device.Back(ctx)
}

func (g *Guarded) StartApp(ctx context.Context, pkg, activity string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.device.StartApp(ctx, pkg, activity)
}

func (g *Guarded) StopApp(ctx context.Context, pkg string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.device.StopApp(ctx, pkg)
}

func (g *Guarded) CaptureFramebuffer(ctx context.Context) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.device.CaptureFramebuffer(ctx)
}
