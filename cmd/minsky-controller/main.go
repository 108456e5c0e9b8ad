// Command minsky-controller is the interactive operator console for a
// MinskyBot.
//
// It connects to the message broker, answers the robot's sync requests
// with the current wall clock, and offers a command shell for steering
// the robot and watching its telemetry.
//
// Usage:
//
//	minsky-controller [flags]
//
// Flags:
//
//	-config string   Configuration file path (default "minsky.yaml")
//	-broker string   Broker address, overriding config and discovery
//	-debug           Force debug logging regardless of config
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/minsky-robotics/minsky-go/pkg/bus"
	"github.com/minsky-robotics/minsky-go/pkg/config"
	"github.com/minsky-robotics/minsky-go/pkg/discovery"
)

const discoveryTimeout = 5 * time.Second

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "Configuration file path")
		brokerAddr = flag.String("broker", "", "Broker address, overriding config and discovery")
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

	addr, err := resolveBroker(*brokerAddr, cfg, logger)
	if err != nil {
		logger.Error("no broker", "err", err)
		os.Exit(1)
	}

	client := bus.NewClient(bus.ClientConfig{
		ClientID: controllerClientID(cfg),
		Logger:   logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()
	if err := client.Connect(ctx, addr); err != nil {
		logger.Error("failed to connect to broker", "addr", addr, "err", err)
		os.Exit(1)
	}
	logger.Info("connected to broker", "addr", addr, "client_id", client.ClientID())

	shell, err := newShell(client, logger)
	if err != nil {
		logger.Error("failed to start shell", "err", err)
		os.Exit(1)
	}

	shell.Run()

	if err := client.Disconnect(); err != nil {
		logger.Warn("disconnect failed", "err", err)
	}
}

func resolveBroker(override string, cfg config.Config, logger *slog.Logger) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg.BrokerHost != "" {
		return cfg.BrokerAddr(), nil
	}
	if !cfg.UseDiscovery {
		return "", fmt.Errorf("no broker host configured and discovery is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()
	broker, err := discovery.Lookup(ctx)
	if err != nil {
		return "", err
	}
	logger.Info("discovered broker", "instance", broker.Instance, "addr", broker.Addr())
	return broker.Addr(), nil
}

func controllerClientID(cfg config.Config) string {
	if cfg.ClientID != "" {
		return cfg.ClientID + "-controller"
	}
	return ""
}
