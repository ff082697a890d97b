// Package config loads runner configuration: how to reach the ADB server,
// which debug sinks to push perception output to, and ambient logging
// knobs. Plan documents themselves are loaded by internal/planmodel — this
// package covers configuration file loading, which stays external to the
// plan engine core.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice accepts a JSON array or a single bare string and
// normalizes both to a []string, for hand-edited config files.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*f = nil
		} else {
			*f = []string{single}
		}
		return nil
	}
	return fmt.Errorf("allow_to: expected string or array of strings")
}

type Config struct {
	ADB       ADBConfig       `json:"adb"`
	OCR       OCRConfig       `json:"ocr"`
	Engine    EngineConfig    `json:"engine"`
	Logging   LoggingConfig   `json:"logging"`
	DebugSink DebugSinkConfig `json:"debug_sink"`
	mu        sync.RWMutex
}

// ADBConfig describes how to reach the ADB server and select a device.
// The core never dials this itself — Device is an injected capability —
// this is consumed by the real device implementation wired up in
// cmd/planrunner.
type ADBConfig struct {
	ServerHost    string `json:"server_host" env:"PLANRUNNER_ADB_SERVER_HOST"`
	ServerPort    int    `json:"server_port" env:"PLANRUNNER_ADB_SERVER_PORT"`
	DeviceSerial  string `json:"device_serial" env:"PLANRUNNER_ADB_DEVICE_SERIAL"`
	ConnectRetry  int    `json:"connect_retry" env:"PLANRUNNER_ADB_CONNECT_RETRY"`
	CommandTimeMS int    `json:"command_timeout_ms" env:"PLANRUNNER_ADB_COMMAND_TIMEOUT_MS"`
}

// OCRConfig names where the recognition model lives. Loading the model is
// out of scope for the core — this only carries the path through to
// whichever OCREngine implementation the entrypoint wires.
type OCRConfig struct {
	DetectionModelPath   string `json:"detection_model_path" env:"PLANRUNNER_OCR_DETECTION_MODEL_PATH"`
	RecognitionModelPath string `json:"recognition_model_path" env:"PLANRUNNER_OCR_RECOGNITION_MODEL_PATH"`
}

// EngineConfig carries the driver loop's timing knobs.
type EngineConfig struct {
	Workdir            string `json:"workdir" env:"PLANRUNNER_ENGINE_WORKDIR"`
	StepSleepSeconds   int    `json:"step_sleep_seconds" env:"PLANRUNNER_ENGINE_STEP_SLEEP_SECONDS"`
	TemplateMatchThres float64 `json:"template_match_threshold" env:"PLANRUNNER_ENGINE_TEMPLATE_MATCH_THRESHOLD"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"PLANRUNNER_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"PLANRUNNER_LOGGING_FILE_PATH"`
	Level       string `json:"level" env:"PLANRUNNER_LOGGING_LEVEL"`
}

// DebugSinkConfig selects the optional out-of-band sinks perception pushes
// crops/scores to. Any subset of these channel adapters may be active; all
// are optional.
type DebugSinkConfig struct {
	Telegram TelegramSinkConfig `json:"telegram"`
	Discord  DiscordSinkConfig  `json:"discord"`
	Slack    SlackSinkConfig    `json:"slack"`
	Lark     LarkSinkConfig     `json:"lark"`
	WS       WSSinkConfig       `json:"websocket"`
}

type TelegramSinkConfig struct {
	Enabled bool                `json:"enabled" env:"PLANRUNNER_SINK_TELEGRAM_ENABLED"`
	Token   string              `json:"token" env:"PLANRUNNER_SINK_TELEGRAM_TOKEN"`
	ChatID  int64               `json:"chat_id" env:"PLANRUNNER_SINK_TELEGRAM_CHAT_ID"`
	AllowTo FlexibleStringSlice `json:"allow_to,omitempty"`
}

type DiscordSinkConfig struct {
	Enabled   bool   `json:"enabled" env:"PLANRUNNER_SINK_DISCORD_ENABLED"`
	Token     string `json:"token" env:"PLANRUNNER_SINK_DISCORD_TOKEN"`
	ChannelID string `json:"channel_id" env:"PLANRUNNER_SINK_DISCORD_CHANNEL_ID"`
}

type SlackSinkConfig struct {
	Enabled  bool   `json:"enabled" env:"PLANRUNNER_SINK_SLACK_ENABLED"`
	BotToken string `json:"bot_token" env:"PLANRUNNER_SINK_SLACK_BOT_TOKEN"`
	ChannelID string `json:"channel_id" env:"PLANRUNNER_SINK_SLACK_CHANNEL_ID"`
}

type LarkSinkConfig struct {
	Enabled   bool   `json:"enabled" env:"PLANRUNNER_SINK_LARK_ENABLED"`
	AppID     string `json:"app_id" env:"PLANRUNNER_SINK_LARK_APP_ID"`
	AppSecret string `json:"app_secret" env:"PLANRUNNER_SINK_LARK_APP_SECRET"`
	ChatID    string `json:"chat_id" env:"PLANRUNNER_SINK_LARK_CHAT_ID"`
}

// WSSinkConfig holds settings for the local websocket broadcaster
// (perception.WSSink). cmd/planrunner does not read these fields: setting
// Enabled does not start a broadcaster or add it to the debug sinks.
type WSSinkConfig struct {
	Enabled bool   `json:"enabled" env:"PLANRUNNER_SINK_WS_ENABLED"`
	Addr    string `json:"addr" env:"PLANRUNNER_SINK_WS_ADDR"`
}

func DefaultConfig() *Config {
	return &Config{
		ADB: ADBConfig{
			ServerHost:    "127.0.0.1",
			ServerPort:    5037,
			DeviceSerial:  "localhost:5555",
			ConnectRetry:  2,
			CommandTimeMS: 10000,
		},
		Engine: EngineConfig{
			Workdir:            ".",
			StepSleepSeconds:   10,
			TemplateMatchThres: 0.04,
		},
		Logging: LoggingConfig{
			FileEnabled: false,
			FilePath:    "~/.planrunner/planrunner.log",
			Level:       "info",
		},
		DebugSink: DebugSinkConfig{
			WS: WSSinkConfig{Addr: "127.0.0.1:8077"},
		},
	}
}

// LoadConfig reads JSON config from path (missing file yields defaults),
// then applies env-tag overrides via struct tags.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ExpandHome expands a leading ~ for path-carrying config fields.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) > 1 && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return home
}

func (c *Config) WorkdirPath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Engine.Workdir)
}

func (c *Config) ADBDeviceAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if strings.Contains(c.ADB.DeviceSerial, ":") {
		return c.ADB.DeviceSerial
	}
	return fmt.Sprintf("%s:%d", c.ADB.ServerHost, c.ADB.ServerPort)
}
