package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/minsky-robotics/minsky-go/pkg/bus"
	"github.com/minsky-robotics/minsky-go/pkg/command"
	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

const pollInterval = 50 * time.Millisecond

// shell is the interactive operator console. Incoming bus messages are
// polled on a background ticker; printing goes through readline so the
// prompt survives asynchronous output.
type shell struct {
	client *bus.Client
	logger *slog.Logger
	rl     *readline.Instance

	quit chan struct{}

	// watch is toggled on the readline goroutine and read by onStatus
	// on the poll goroutine.
	watch atomic.Bool
}

func newShell(client *bus.Client, logger *slog.Logger) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minsky> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := &shell{
		client: client,
		logger: logger,
		rl:     rl,
		quit:   make(chan struct{}),
	}

	if err := client.Subscribe(wire.TopicRequestSync, s.onRequestSync); err != nil {
		return nil, err
	}
	if err := client.Subscribe(wire.TopicStatus, s.onStatus); err != nil {
		return nil, err
	}

	return s, nil
}

// Run reads operator commands until exit. Bus polling runs alongside so
// sync requests are answered while the operator is idle at the prompt.
func (s *shell) Run() {
	defer s.rl.Close()

	go s.pollLoop()
	defer close(s.quit)

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "speed":
			s.cmdSpeed(args)

		case "faster":
			s.sendCommand(command.NameIncrementSpeed, args)

		case "slower":
			s.sendCommand(command.NameDecrementSpeed, args)

		case "halt", "stop":
			s.sendCommand(command.NameHaltSpeed, nil)

		case "straight":
			s.sendCommand(command.NameStraightOn, nil)

		case "left":
			s.sendCommand(command.NameRotateLeft, nil)

		case "right":
			s.sendCommand(command.NameRotateRight, nil)

		case "spin-left":
			s.sendCommand(command.NameFastRotateLeft, nil)

		case "spin-right":
			s.sendCommand(command.NameFastRotateRight, nil)

		case "sync":
			s.cmdSync()

		case "watch":
			s.cmdWatch(args)

		case "raw":
			s.cmdRaw(args)

		case "shutdown":
			s.sendCommand(command.NameShutdown, nil)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command %q, try help\n", cmd)
		}
	}
}

func (s *shell) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.client.Poll()
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprint(s.rl.Stdout(), `Commands:
  speed <v>        Set both wheels to v (-1..1)
  faster [d]       Increase speed by d (default 0.05)
  slower [d]       Decrease speed by d (default 0.05)
  halt             Stop both wheels
  straight         Equalise the wheels
  left | right     Rotate by stopping one wheel
  spin-left | spin-right
                   Spin in place
  sync             Send the current wall clock to the robot
  watch [on|off]   Toggle telemetry display
  raw <name> [args...]
                   Send a raw command
  shutdown         Ask the robot to wind down
  quit             Leave the console
`)
}

func (s *shell) cmdSpeed(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "usage: speed <v>")
		return
	}
	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "not a number: %q\n", args[0])
		return
	}
	if err := s.client.PublishString(wire.TopicSpeedSync, wire.FormatSpeedSync(speed)); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "publish failed: %v\n", err)
	}
}

func (s *shell) cmdSync() {
	payload := wire.TimeSyncFromTime(time.Now()).Format()
	if err := s.client.PublishString(wire.TopicTimeSync, payload); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "publish failed: %v\n", err)
		return
	}
	fmt.Fprintln(s.rl.Stdout(), "time sync sent")
}

func (s *shell) cmdWatch(args []string) {
	switch {
	case len(args) == 0:
		s.watch.Store(!s.watch.Load())
	case args[0] == "on":
		s.watch.Store(true)
	case args[0] == "off":
		s.watch.Store(false)
	default:
		fmt.Fprintln(s.rl.Stdout(), "usage: watch [on|off]")
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "telemetry watch %v\n", s.watch.Load())
}

func (s *shell) cmdRaw(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "usage: raw <name> [args...]")
		return
	}
	s.sendCommand(args[0], args[1:])
}

func (s *shell) sendCommand(name string, args []string) {
	payload := wire.Command{Name: name, Args: args}.Format()
	if err := s.client.PublishString(wire.TopicCommand, payload); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "publish failed: %v\n", err)
	}
}

// onRequestSync answers a robot's boot-time sync request with the wall
// clock and a zero speed target.
func (s *shell) onRequestSync(topic string, payload []byte) {
	fmt.Fprintf(s.rl.Stdout(), "sync requested by %s\n", string(payload))

	sync := wire.TimeSyncFromTime(time.Now()).Format()
	if err := s.client.PublishString(wire.TopicTimeSync, sync); err != nil {
		s.logger.Warn("time sync failed", "err", err)
	}
	if err := s.client.PublishString(wire.TopicSpeedSync, wire.FormatSpeedSync(0)); err != nil {
		s.logger.Warn("speed sync failed", "err", err)
	}
}

func (s *shell) onStatus(topic string, payload []byte) {
	text := string(payload)
	kind, err := wire.StatusKind(text)
	if err != nil {
		s.logger.Warn("bad status payload", "err", err)
		return
	}

	switch kind {
	case wire.StatusTelemetry:
		if !s.watch.Load() {
			return
		}
		tm, err := wire.ParseTelemetry(text)
		if err != nil {
			s.logger.Warn("bad telemetry", "err", err)
			return
		}
		fmt.Fprintf(s.rl.Stdout(), "telemetry: frames=%d left=%g right=%g\n",
			tm.Frames, tm.ThrottleL, tm.ThrottleR)

	case wire.StatusShutdown:
		fmt.Fprintln(s.rl.Stdout(), "robot is shutting down")

	case wire.StatusMessage:
		fmt.Fprintf(s.rl.Stdout(), "robot: %s\n", strings.TrimPrefix(text, wire.StatusMessage+wire.FieldSep))
	}
}
