package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/minsky-robotics/minsky-go/pkg/bus"
	"github.com/minsky-robotics/minsky-go/pkg/command"
	"github.com/minsky-robotics/minsky-go/pkg/config"
	"github.com/minsky-robotics/minsky-go/pkg/discovery"
	"github.com/minsky-robotics/minsky-go/pkg/robot"
	"github.com/minsky-robotics/minsky-go/pkg/runtime"
	"github.com/minsky-robotics/minsky-go/pkg/version"
	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

const (
	tickTimerName       = "tick"
	discoveryTimeout    = 5 * time.Second
	telemetryBurstLimit = 1
)

// bot wires the drive train, command registry and bus client into the
// cooperative run loop.
type bot struct {
	cfg      config.Config
	logger   *slog.Logger
	drive    *robot.Drive
	registry *command.Registry
	client   *bus.Client
	limiter  *rate.Limiter
	app      *runtime.App

	// lastTimeSync is the most recent wall-clock sync received from
	// the controller, zero until one arrives.
	lastTimeSync time.Time
}

func newBot(cfg config.Config, logger *slog.Logger) (*bot, error) {
	drive, err := robot.NewDrive(robot.DriveConfig{
		Left:   robot.NewSimMotor("left"),
		Right:  robot.NewSimMotor("right"),
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	b := &bot{
		cfg:      cfg,
		logger:   logger,
		drive:    drive,
		registry: command.NewRegistry(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.TelemetryPerSecond), telemetryBurstLimit),
	}

	b.app = runtime.NewApp(runtime.Config{
		Environment: b,
		Logger:      logger,
		Hooks: runtime.Hooks{
			Init:   b.init,
			Loop:   b.loop,
			Deinit: b.deinit,
		},
	})

	return b, nil
}

func (b *bot) run() int {
	return b.app.Run()
}

// Drive and Finish make the bot the target of dispatched commands.

func (b *bot) Drive() *robot.Drive { return b.drive }

func (b *bot) Finish() { b.app.Finish() }

// Startup connects to the message broker. With the bus disabled the
// bot runs standalone and Startup is a no-op.
func (b *bot) Startup(*runtime.App) error {
	if !b.cfg.UseBus {
		b.logger.Info("bus disabled, running standalone")
		return nil
	}

	addr := b.cfg.BrokerAddr()
	if b.cfg.BrokerHost == "" {
		if !b.cfg.UseDiscovery {
			return fmt.Errorf("no broker host configured and discovery is disabled")
		}
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
		defer cancel()
		broker, err := discovery.Lookup(ctx)
		if err != nil {
			return fmt.Errorf("broker discovery failed: %w", err)
		}
		addr = broker.Addr()
		b.logger.Info("discovered broker", "instance", broker.Instance, "addr", addr)
		checkBrokerVersion(broker, b.logger)
	}

	b.client = bus.NewClient(bus.ClientConfig{
		ClientID: b.cfg.ClientID,
		Logger:   b.logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()
	if err := b.client.Connect(ctx, addr); err != nil {
		return fmt.Errorf("failed to connect to broker %s: %w", addr, err)
	}
	b.logger.Info("connected to broker", "addr", addr, "client_id", b.client.ClientID())
	return nil
}

// Shutdown closes the broker connection.
func (b *bot) Shutdown(*runtime.App) error {
	if b.client == nil {
		return nil
	}
	return b.client.Disconnect()
}

func (b *bot) init(app *runtime.App) error {
	if b.client != nil {
		if err := b.client.Subscribe(wire.TopicTimeSync, b.onTimeSync); err != nil {
			return err
		}
		if err := b.client.Subscribe(wire.TopicSpeedSync, b.onSpeedSync); err != nil {
			return err
		}
		if err := b.client.Subscribe(wire.TopicCommand, b.onCommand); err != nil {
			return err
		}
		if err := b.client.PublishString(wire.TopicRequestSync, b.client.ClientID()); err != nil {
			return err
		}
	}

	timer := app.AddTimerWithOptions(b.cfg.TickPeriodMS, b.onTick, runtime.TimerOptions{
		Name:      tickTimerName,
		WallClock: true,
	})
	if timer == nil {
		return fmt.Errorf("failed to register %s timer", tickTimerName)
	}
	timer.Start()
	return nil
}

func (b *bot) loop(*runtime.App) error {
	if b.client != nil {
		b.client.Poll()
	}
	b.drive.Tick()

	if b.client != nil && b.client.IsConnected() && b.limiter.Allow() {
		if err := b.client.PublishString(wire.TopicStatus, b.drive.Telemetry().Format()); err != nil {
			b.logger.Warn("telemetry publish failed", "err", err)
		}
	}

	// Yield between iterations. Poll is non-blocking, so without this
	// an idle robot would spin at full speed.
	if b.cfg.LoopSleepMS > 0 {
		time.Sleep(time.Duration(b.cfg.LoopSleepMS) * time.Millisecond)
	}
	return nil
}

func (b *bot) deinit(*runtime.App) error {
	if err := b.drive.HaltSpeed(); err != nil {
		return err
	}
	if b.client != nil && b.client.IsConnected() {
		if err := b.client.PublishString(wire.TopicStatus, wire.StatusShutdown); err != nil {
			b.logger.Warn("shutdown notice failed", "err", err)
		}
	}
	return nil
}

func (b *bot) onTick(t *runtime.Timer, triggeredAt time.Time) {
	l, r := b.drive.Throttles()
	b.logger.Info("tick",
		"at", triggeredAt.Format(time.TimeOnly),
		"count", t.TriggerCount(),
		"frames", b.drive.Frames(),
		"throttle_l", l,
		"throttle_r", r)
}

func (b *bot) onTimeSync(topic string, payload []byte) {
	sync, err := wire.ParseTimeSync(string(payload))
	if err != nil {
		b.logger.Warn("bad time sync", "err", err)
		return
	}
	b.lastTimeSync = sync.Time(time.Local)
	b.logger.Info("time sync", "wall", b.lastTimeSync.Format(time.DateTime))
}

func (b *bot) onSpeedSync(topic string, payload []byte) {
	speed, err := wire.ParseSpeedSync(string(payload))
	if err != nil {
		b.logger.Warn("bad speed sync", "err", err)
		return
	}
	if err := b.drive.SetSpeed(speed); err != nil {
		b.logger.Warn("speed sync rejected", "err", err)
	}
}

func (b *bot) onCommand(topic string, payload []byte) {
	cmd, err := wire.ParseCommand(string(payload))
	if err != nil {
		b.logger.Warn("bad command payload", "err", err)
		return
	}
	if err := b.registry.Dispatch(b, cmd); err != nil {
		b.logger.Warn("command failed", "command", cmd.Name, "err", err)
		b.reportError(err)
	}
}

// checkBrokerVersion warns when a discovered broker speaks a protocol
// major this build does not.
func checkBrokerVersion(broker *discovery.Broker, logger *slog.Logger) {
	advertised, found, err := version.FromTXT(broker.Text)
	if err != nil {
		logger.Warn("broker advertises a malformed version", "err", err)
		return
	}
	if !found {
		return
	}
	mine, _ := version.Parse(version.Current)
	if !mine.Compatible(advertised) {
		logger.Warn("broker protocol version mismatch",
			"broker", advertised, "supported", version.Current)
	}
}

// reportError tells the controller that a command was rejected.
func (b *bot) reportError(err error) {
	if b.client == nil || !b.client.IsConnected() {
		return
	}
	payload := wire.StatusMessage + wire.FieldSep + err.Error()
	if perr := b.client.PublishString(wire.TopicStatus, payload); perr != nil {
		b.logger.Warn("error report failed", "err", perr)
	}
}
