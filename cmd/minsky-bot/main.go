// Command minsky-bot runs the MinskyBot robot runtime.
//
// The bot drives a two-wheeled differential robot through the
// cooperative life-cycle loop: it connects to the message broker,
// listens for speed targets and commands from the controller, and
// publishes telemetry while looping. The process exit code reports
// where a failure happened; 0 means a clean run.
//
// Usage:
//
//	minsky-bot [flags]
//
// Flags:
//
//	-config string   Configuration file path (default "minsky.yaml")
//	-debug           Force debug logging regardless of config
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/minsky-robotics/minsky-go/pkg/config"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Configuration file path")
		debug      = flag.Bool("debug", false, "Force debug logging regardless of config")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *debug {
		cfg.DebugOn = true
	}

	level := slog.LevelInfo
	if cfg.DebugOn {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	b, err := newBot(cfg, logger)
	if err != nil {
		logger.Error("failed to build bot", "err", err)
		os.Exit(1)
	}

	os.Exit(b.run())
}
