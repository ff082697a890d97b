package device

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/adbplan/planrunner/internal/planlog"
)

// ADBDevice drives a single device through the `adb` CLI, always pinned to
// one serial via -s (adapted from runADBCommandImpl in screen_termux.go, to
// avoid "more than one device" ambiguity when several are attached).
type ADBDevice struct {
	serial  string
	timeout time.Duration
}

// Connect dials serial, retrying up to retries times (adapted from
// adb_device_ext.rs's ADBServerTryConnectToDevice, which retries a failed
// `adb connect` before giving up).
func Connect(ctx context.Context, serial string, retries int, timeout time.Duration) (*ADBDevice, error) {
	d := &ADBDevice{serial: serial, timeout: timeout}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if _, err := d.run(ctx, "connect", serial); err != nil {
			lastErr = err
			planlog.WarnF("device", "adb connect attempt failed", map[string]interface{}{
				"serial": serial, "attempt": attempt, "error": err.Error(),
			})
			continue
		}
		if _, err := d.run(ctx, "shell", "true"); err != nil {
			lastErr = err
			continue
		}
		return d, nil
	}
	return nil, &ConnectError{Addr: serial, Retries: retries, Err: lastErr}
}

func (d *ADBDevice) run(ctx context.Context, args ...string) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	fullArgs := append([]string{"-s", d.serial}, args...)
	cmd := exec.CommandContext(runCtx, "adb", fullArgs...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("adb %s: %w (output: %s)", strings.Join(args, " "), err, string(out))
	}
	return string(out), nil
}

func (d *ADBDevice) shell(ctx context.Context, args ...string) (string, error) {
	return d.run(ctx, append([]string{"shell"}, args...)...)
}

// Tap sends an `input tap x y` (adapted from screenTap in screen_termux.go).
func (d *ADBDevice) Tap(ctx context.Context, x, y uint32) error {
	_, err := d.shell(ctx, "input", "tap", fmt.Sprintf("%d", x), fmt.Sprintf("%d", y))
	return err
}

// Back sends KEYCODE_BACK (4), mirroring the keycodeLookup table in
// screen.go.
func (d *ADBDevice) Back(ctx context.Context) error {
	_, err := d.shell(ctx, "input", "keyevent", "KEYCODE_BACK")
	return err
}

// StartApp launches pkg/activity via `am start` rather than monkey, since
// monkey cannot target a specific activity and the plan document always
// names one explicitly.
func (d *ADBDevice) StartApp(ctx context.Context, pkg, activity string) error {
	component := fmt.Sprintf("%s/%s", pkg, activity)
	_, err := d.shell(ctx, "am", "start",
		"-c", "android.intent.category.LAUNCHER",
		"-a", "android.intent.action.MAIN",
		"-n", component)
	return err
}

// StopApp force-stops pkg, adapted from ADBDeviceSimpleCommand::stop_app.
func (d *ADBDevice) StopApp(ctx context.Context, pkg string) error {
	_, err := d.shell(ctx, "am", "force-stop", pkg)
	return err
}

// CaptureFramebuffer takes a screenshot and pulls it back as raw PNG bytes,
// adapted from screenshotExecute in screen_termux.go (here kept in-memory
// via `adb exec-out` instead of screencap+pull+rm, since the plan engine
// only needs the bytes, not a saved artifact).
func (d *ADBDevice) CaptureFramebuffer(ctx context.Context) ([]byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if d.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "adb", "-s", d.serial, "exec-out", "screencap", "-p")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("adb exec-out screencap: %w", err)
	}
	return out, nil
}
