package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payload field separator. The pipe-delimited layouts are fixed contracts of
// the surrounding application.
const FieldSep = "|"

// Payload errors.
var (
	ErrEmptyPayload   = errors.New("empty payload")
	ErrBadFieldCount  = errors.New("wrong field count")
	ErrBadFieldValue  = errors.New("bad field value")
	ErrUnknownStatus  = errors.New("unknown status kind")
)

// Status payload kinds on TopicStatus.
const (
	StatusTelemetry = "telemetry"
	StatusShutdown  = "shutdown"
	StatusMessage   = "message"
)

// SplitFields splits a pipe-delimited payload into its fields.
func SplitFields(payload string) []string {
	return strings.Split(payload, FieldSep)
}

// Telemetry is the periodic bot status published on TopicStatus as
// "telemetry|frames|throttle_l|throttle_r".
type Telemetry struct {
	Frames    uint64
	ThrottleL float64
	ThrottleR float64
}

// Format renders the telemetry payload.
func (t Telemetry) Format() string {
	return fmt.Sprintf("%s|%d|%g|%g", StatusTelemetry, t.Frames, t.ThrottleL, t.ThrottleR)
}

// ParseTelemetry parses a "telemetry|..." status payload.
func ParseTelemetry(payload string) (Telemetry, error) {
	fields := SplitFields(payload)
	if len(fields) != 4 || fields[0] != StatusTelemetry {
		return Telemetry{}, fmt.Errorf("%w: telemetry wants 4 fields, got %d", ErrBadFieldCount, len(fields))
	}

	frames, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Telemetry{}, fmt.Errorf("%w: frames %q", ErrBadFieldValue, fields[1])
	}
	left, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Telemetry{}, fmt.Errorf("%w: throttle_l %q", ErrBadFieldValue, fields[2])
	}
	right, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Telemetry{}, fmt.Errorf("%w: throttle_r %q", ErrBadFieldValue, fields[3])
	}

	return Telemetry{Frames: frames, ThrottleL: left, ThrottleR: right}, nil
}

// TimeSync is the wall-clock synchronisation payload on TopicTimeSync:
// "year|month|day|hour|minute|second|weekday|yearday|dst" with dst sent as
// -1 (unknown) by the controller; the bot substitutes its own DST policy.
type TimeSync struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday int
	YearDay int
	DST     int
}

// TimeSyncFromTime builds a sync payload from a wall-clock instant.
// DST is sent as -1; the receiver applies its own policy.
func TimeSyncFromTime(now time.Time) TimeSync {
	return TimeSync{
		Year:    now.Year(),
		Month:   int(now.Month()),
		Day:     now.Day(),
		Hour:    now.Hour(),
		Minute:  now.Minute(),
		Second:  now.Second(),
		Weekday: int(now.Weekday()),
		YearDay: now.YearDay(),
		DST:     -1,
	}
}

// Format renders the time sync payload.
func (ts TimeSync) Format() string {
	return fmt.Sprintf("%d|%02d|%02d|%02d|%02d|%02d|%d|%d|%d",
		ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second,
		ts.Weekday, ts.YearDay, ts.DST)
}

// Time converts the sync to a wall-clock instant in loc.
func (ts TimeSync) Time(loc *time.Location) time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day,
		ts.Hour, ts.Minute, ts.Second, 0, loc)
}

// ParseTimeSync parses a time sync payload. The trailing DST field is
// optional for compatibility with senders that omit it.
func ParseTimeSync(payload string) (TimeSync, error) {
	fields := SplitFields(payload)
	if len(fields) != 8 && len(fields) != 9 {
		return TimeSync{}, fmt.Errorf("%w: time sync wants 8 or 9 fields, got %d", ErrBadFieldCount, len(fields))
	}

	vals := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return TimeSync{}, fmt.Errorf("%w: field %d %q", ErrBadFieldValue, i, f)
		}
		vals[i] = v
	}

	ts := TimeSync{
		Year:    vals[0],
		Month:   vals[1],
		Day:     vals[2],
		Hour:    vals[3],
		Minute:  vals[4],
		Second:  vals[5],
		Weekday: vals[6],
		YearDay: vals[7],
		DST:     -1,
	}
	if len(vals) == 9 {
		ts.DST = vals[8]
	}
	return ts, nil
}

// FormatSpeedSync renders an absolute speed target for TopicSpeedSync.
func FormatSpeedSync(speed float64) string {
	return strconv.FormatFloat(speed, 'g', -1, 64)
}

// ParseSpeedSync parses a speed sync payload.
func ParseSpeedSync(payload string) (float64, error) {
	speed, err := strconv.ParseFloat(strings.TrimSpace(payload), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: speed %q", ErrBadFieldValue, payload)
	}
	return speed, nil
}

// Command is a parsed TopicCommand payload: "name|arg1|arg2|...".
type Command struct {
	Name string
	Args []string
}

// Format renders the command payload.
func (c Command) Format() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + FieldSep + strings.Join(c.Args, FieldSep)
}

// ParseCommand parses a command payload. The command name is not validated
// here; dispatch against the closed registry happens in pkg/command.
func ParseCommand(payload string) (Command, error) {
	if strings.TrimSpace(payload) == "" {
		return Command{}, ErrEmptyPayload
	}
	fields := SplitFields(payload)
	return Command{Name: fields[0], Args: fields[1:]}, nil
}

// StatusKind returns the leading kind field of a TopicStatus payload.
func StatusKind(payload string) (string, error) {
	fields := SplitFields(payload)
	switch fields[0] {
	case StatusTelemetry, StatusShutdown, StatusMessage:
		return fields[0], nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, fields[0])
	}
}
