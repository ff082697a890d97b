// Command planrunner is the thin CLI entrypoint wiring a real ADB device
// and the configured chat debug sinks to the plan engine. No OCR engine is
// linked into this binary (see buildOCREngine). A bundled interactive studio/REPL front-end is out of scope;
// flag is used for argument parsing since no CLI-argument library fits
// this small a surface (see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adbplan/planrunner/internal/config"
	"github.com/adbplan/planrunner/internal/device"
	"github.com/adbplan/planrunner/internal/engine"
	"github.com/adbplan/planrunner/internal/perception"
	"github.com/adbplan/planrunner/internal/planlog"
	"github.com/adbplan/planrunner/internal/planmodel"
	"github.com/adbplan/planrunner/internal/schedule"
)

func main() {
	configPath := flag.String("config", "planrunner.json", "path to the runner configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: planrunner [-config path] <navigate SCREEN | schedule INDEX | validate>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	plan, warnings, err := planmodel.Load(cfg.WorkdirPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load plan: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		planlog.Warn("plan", w.Message)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "validate":
		runValidate(plan)
	case "navigate":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: planrunner navigate SCREEN")
			os.Exit(2)
		}
		runNavigate(ctx, cfg, plan, args[1])
	case "schedule":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: planrunner schedule INDEX")
			os.Exit(2)
		}
		runSchedule(ctx, cfg, plan, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		os.Exit(2)
	}
}

func configureLogging(cfg *config.Config) {
	switch cfg.Logging.Level {
	case "debug":
		planlog.SetLevel(planlog.DEBUG)
	case "warn":
		planlog.SetLevel(planlog.WARN)
	case "error":
		planlog.SetLevel(planlog.ERROR)
	default:
		planlog.SetLevel(planlog.INFO)
	}
	if cfg.Logging.FileEnabled {
		if err := planlog.EnableFileLogging(config.ExpandHome(cfg.Logging.FilePath)); err != nil {
			planlog.WarnF("main", "could not enable file logging", map[string]interface{}{"error": err.Error()})
		}
	}
}

func runValidate(plan *planmodel.Plan) {
	errs := schedule.ValidateOnCalendar(plan)
	if len(errs) == 0 {
		fmt.Println("plan is valid")
		return
	}
	for _, err := range errs {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func buildEngine(ctx context.Context, cfg *config.Config, plan *planmodel.Plan) (*engine.PlanEngine, error) {
	adbDevice, err := device.Connect(ctx, cfg.ADBDeviceAddr(), cfg.ADB.ConnectRetry, time.Duration(cfg.ADB.CommandTimeMS)*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("connect device: %w", err)
	}
	guarded := device.NewGuarded(adbDevice)

	identifier := &perception.Identifier{
		Assets:    perception.NewAssetLoader(plan.Workdir),
		OCR:       buildOCREngine(cfg),
		Threshold: cfg.Engine.TemplateMatchThres,
	}

	sink := buildDebugSink(cfg)

	return engine.NewPlanEngine(plan, guarded, identifier, sink, time.Duration(cfg.Engine.StepSleepSeconds)*time.Second), nil
}

// buildOCREngine always returns nil: no OCREngine implementation is linked
// in, and OCR model loading stays outside this package's scope. When a
// recognition model path is configured it only logs a warning. A plan with
// no `ocr` idents never needs an engine; one with `ocr` idents fails to
// identify with an error.
func buildOCREngine(cfg *config.Config) perception.OCREngine {
	if cfg.OCR.RecognitionModelPath == "" {
		return nil
	}
	planlog.WarnF("main", "ocr model configured but no OCREngine implementation is linked in", map[string]interface{}{
		"recognition_model_path": cfg.OCR.RecognitionModelPath,
	})
	return nil
}

func buildDebugSink(cfg *config.Config) perception.DebugSink {
	var sinks []perception.DebugSink

	if cfg.DebugSink.Telegram.Enabled {
		if sink, err := perception.NewTelegramSink(cfg.DebugSink.Telegram.Token, cfg.DebugSink.Telegram.ChatID); err == nil {
			sinks = append(sinks, sink)
		} else {
			planlog.WarnF("main", "telegram sink init failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if cfg.DebugSink.Discord.Enabled {
		if sink, err := perception.NewDiscordSink(cfg.DebugSink.Discord.Token, cfg.DebugSink.Discord.ChannelID); err == nil {
			sinks = append(sinks, sink)
		} else {
			planlog.WarnF("main", "discord sink init failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if cfg.DebugSink.Slack.Enabled {
		sinks = append(sinks, perception.NewSlackSink(cfg.DebugSink.Slack.BotToken, cfg.DebugSink.Slack.ChannelID))
	}
	if cfg.DebugSink.Lark.Enabled {
		sinks = append(sinks, perception.NewLarkSink(cfg.DebugSink.Lark.AppID, cfg.DebugSink.Lark.AppSecret, cfg.DebugSink.Lark.ChatID))
	}

	if len(sinks) == 0 {
		return nil
	}
	return &perception.MultiSink{
		Sinks: sinks,
		OnErr: func(sink perception.DebugSink, err error) {
			planlog.WarnF("main", "debug sink push failed", map[string]interface{}{"error": err.Error()})
		},
	}
}

func runNavigate(ctx context.Context, cfg *config.Config, plan *planmodel.Plan, target string) {
	eng, err := buildEngine(ctx, cfg, plan)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := eng.NavigateTo(ctx, target); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSchedule(ctx context.Context, cfg *config.Config, plan *planmodel.Plan, indexArg string) {
	var index int
	if _, err := fmt.Sscanf(indexArg, "%d", &index); err != nil || index < 0 || index >= len(plan.Schedules) {
		fmt.Fprintf(os.Stderr, "invalid schedule index %q\n", indexArg)
		os.Exit(2)
	}

	eng, err := buildEngine(ctx, cfg, plan)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	runner := &schedule.Runner{Plan: plan, Engine: eng, Scripts: eng.Scripts}
	if err := runner.RunOnce(ctx, plan.Schedules[index]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
