package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.StepSleepSeconds != DefaultConfig().Engine.StepSleepSeconds {
		t.Fatalf("expected default step sleep, got %d", cfg.Engine.StepSleepSeconds)
	}
}

func TestLoadConfigOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"engine": {"step_sleep_seconds": 3, "template_match_threshold": 0.1}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.StepSleepSeconds != 3 {
		t.Fatalf("expected step_sleep_seconds=3, got %d", cfg.Engine.StepSleepSeconds)
	}
	if cfg.Engine.TemplateMatchThres != 0.1 {
		t.Fatalf("expected template_match_threshold=0.1, got %v", cfg.Engine.TemplateMatchThres)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PLANRUNNER_ADB_DEVICE_SERIAL", "192.168.1.50:5555")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ADB.DeviceSerial != "192.168.1.50:5555" {
		t.Fatalf("expected env override to apply, got %q", cfg.ADB.DeviceSerial)
	}
}

func TestADBDeviceAddrPrefersSerialWithColon(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ADB.DeviceSerial = "10.0.0.5:5555"
	if addr := cfg.ADBDeviceAddr(); addr != "10.0.0.5:5555" {
		t.Fatalf("expected serial to be used as-is, got %q", addr)
	}
}

func TestADBDeviceAddrFallsBackToHostPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ADB.DeviceSerial = "no-colon-here"
	cfg.ADB.ServerHost = "127.0.0.1"
	cfg.ADB.ServerPort = 5037
	if addr := cfg.ADBDeviceAddr(); addr != "127.0.0.1:5037" {
		t.Fatalf("expected host:port fallback, got %q", addr)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	if got := ExpandHome("~/foo"); got != filepath.Join(home, "foo") {
		t.Fatalf("expected expanded path, got %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("expected absolute path unchanged, got %q", got)
	}
}
