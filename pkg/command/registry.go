package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/minsky-robotics/minsky-go/pkg/robot"
	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

// Built-in command names.
const (
	NameSetSpeed        = "set_speed"
	NameIncrementSpeed  = "increment_speed"
	NameDecrementSpeed  = "decrement_speed"
	NameHaltSpeed       = "halt_speed"
	NameStraightOn      = "straight_on"
	NameRotateLeft      = "rotate_left"
	NameFastRotateLeft  = "fast_rotate_left"
	NameRotateRight     = "rotate_right"
	NameFastRotateRight = "fast_rotate_right"
	NameShutdown        = "shutdown"
)

var (
	ErrUnknownCommand    = errors.New("unknown command")
	ErrInvalidArgs       = errors.New("invalid command arguments")
	ErrDuplicateCommand  = errors.New("command already registered")
	ErrEmptyCommandName  = errors.New("command name must not be empty")
	ErrNilCommandHandler = errors.New("command handler must not be nil")
)

// Target is the machine a command acts on. The application hands its
// own instance to Dispatch, so handlers never reach for shared state.
type Target interface {
	// Drive returns the drive train to steer.
	Drive() *robot.Drive

	// Finish asks the run loop to wind down after the current pass.
	Finish()
}

// Handler executes one command against a target.
type Handler func(target Target, args []string) error

// Registry maps command names to handlers. It is not safe for
// concurrent mutation; register everything before the loop starts.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry preloaded with the built-in motion
// and shutdown commands.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}

	r.handlers[NameSetSpeed] = handleSetSpeed
	r.handlers[NameIncrementSpeed] = stepHandler((*robot.Drive).IncrementSpeed)
	r.handlers[NameDecrementSpeed] = stepHandler((*robot.Drive).DecrementSpeed)
	r.handlers[NameHaltSpeed] = driveHandler((*robot.Drive).HaltSpeed)
	r.handlers[NameStraightOn] = driveHandler((*robot.Drive).StraightOn)
	r.handlers[NameRotateLeft] = driveHandler((*robot.Drive).RotateLeft)
	r.handlers[NameFastRotateLeft] = driveHandler((*robot.Drive).FastRotateLeft)
	r.handlers[NameRotateRight] = driveHandler((*robot.Drive).RotateRight)
	r.handlers[NameFastRotateRight] = driveHandler((*robot.Drive).FastRotateRight)
	r.handlers[NameShutdown] = handleShutdown

	return r
}

// Register adds a handler for name. Registering an existing name is
// rejected so a typo cannot silently shadow a built-in.
func (r *Registry) Register(name string, handler Handler) error {
	if name == "" {
		return ErrEmptyCommandName
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrNilCommandHandler, name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.handlers[name] = handler
	return nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for cmd against target. Unknown names
// return ErrUnknownCommand.
func (r *Registry) Dispatch(target Target, cmd wire.Command) error {
	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	if err := handler(target, cmd.Args); err != nil {
		return fmt.Errorf("command %s: %w", cmd.Name, err)
	}
	return nil
}

func handleSetSpeed(target Target, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: set_speed wants one argument, got %d", ErrInvalidArgs, len(args))
	}
	speed, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidArgs, args[0])
	}
	return target.Drive().SetSpeed(speed)
}

func handleShutdown(target Target, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: shutdown takes no arguments", ErrInvalidArgs)
	}
	target.Finish()
	return nil
}

// stepHandler adapts an increment style drive method taking an
// optional delta argument.
func stepHandler(step func(d *robot.Drive, delta float64) error) Handler {
	return func(target Target, args []string) error {
		delta := 0.0
		switch len(args) {
		case 0:
		case 1:
			var err error
			delta, err = strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", ErrInvalidArgs, args[0])
			}
		default:
			return fmt.Errorf("%w: at most one argument, got %d", ErrInvalidArgs, len(args))
		}
		return step(target.Drive(), delta)
	}
}

// driveHandler adapts a no-argument drive method.
func driveHandler(op func(d *robot.Drive) error) Handler {
	return func(target Target, args []string) error {
		if len(args) != 0 {
			return fmt.Errorf("%w: no arguments expected, got %d", ErrInvalidArgs, len(args))
		}
		return op(target.Drive())
	}
}
