// Command minsky-broker runs the message broker that connects MinskyBot
// robots with their controllers.
//
// The broker listens for bus clients on a TCP port and, unless disabled,
// announces itself on the local network over mDNS so robots and
// controllers can find it without configuration.
//
// Usage:
//
//	minsky-broker [flags]
//
// Flags:
//
//	-port int          Listen port (default 4452)
//	-instance string   mDNS instance name (default "minsky-broker")
//	-no-advertise      Disable mDNS advertisement
//	-record string     Record bus traffic to the given file
//	-log-level string  Log level: debug, info, warn, error (default "info")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/minsky-robotics/minsky-go/pkg/bus"
	"github.com/minsky-robotics/minsky-go/pkg/buslog"
	"github.com/minsky-robotics/minsky-go/pkg/discovery"
	"github.com/minsky-robotics/minsky-go/pkg/version"
)

func main() {
	var (
		port        = flag.Int("port", 4452, "Listen port")
		instance    = flag.String("instance", "minsky-broker", "mDNS instance name")
		noAdvertise = flag.Bool("no-advertise", false, "Disable mDNS advertisement")
		recordPath  = flag.String("record", "", "Record bus traffic to the given file")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	logger := newLogger(*logLevel)

	var recorder buslog.Recorder
	if *recordPath != "" {
		fileRecorder, err := buslog.NewFileRecorder(*recordPath)
		if err != nil {
			logger.Error("failed to open traffic log", "path", *recordPath, "err", err)
			os.Exit(1)
		}
		defer fileRecorder.Close()
		recorder = fileRecorder
		logger.Info("recording bus traffic", "path", *recordPath)
	}

	broker := bus.NewBroker(bus.BrokerConfig{
		Address:  fmt.Sprintf(":%d", *port),
		Logger:   logger,
		Recorder: recorder,
		OnConnect: func(clientID string) {
			logger.Info("client connected", "client_id", clientID)
		},
		OnDisconnect: func(clientID string) {
			logger.Info("client disconnected", "client_id", clientID)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := broker.Start(ctx); err != nil {
		logger.Error("failed to start broker", "err", err)
		os.Exit(1)
	}
	logger.Info("broker listening", "addr", broker.Addr())

	advertiser := discovery.NewAdvertiser()
	if !*noAdvertise {
		txt := []string{version.TXTRecord()}
		if err := advertiser.Advertise(*instance, *port, txt); err != nil {
			logger.Warn("mDNS advertisement failed", "err", err)
		} else {
			logger.Info("advertising broker",
				"instance", *instance, "service", discovery.ServiceType, "version", version.Current)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	advertiser.Stop()
	if err := broker.Stop(); err != nil {
		logger.Error("error stopping broker", "err", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
