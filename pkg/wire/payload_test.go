package wire

import (
	"errors"
	"testing"
	"time"
)

func TestTelemetryRoundTrip(t *testing.T) {
	in := Telemetry{Frames: 1024, ThrottleL: 0.55, ThrottleR: -0.25}

	payload := in.Format()
	if payload != "telemetry|1024|0.55|-0.25" {
		t.Errorf("Format() = %q", payload)
	}

	out, err := ParseTelemetry(payload)
	if err != nil {
		t.Fatalf("ParseTelemetry() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestParseTelemetryErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"WrongKind", "shutdown"},
		{"TooFewFields", "telemetry|1|0.5"},
		{"TooManyFields", "telemetry|1|0.5|0.5|extra"},
		{"BadFrames", "telemetry|x|0.5|0.5"},
		{"BadThrottle", "telemetry|1|fast|0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTelemetry(tt.payload); err == nil {
				t.Errorf("ParseTelemetry(%q) = nil error", tt.payload)
			}
		})
	}
}

func TestTimeSyncRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 30, 45, 0, time.UTC)
	in := TimeSyncFromTime(now)

	if in.Weekday != int(time.Friday) || in.YearDay != 75 {
		t.Fatalf("TimeSyncFromTime = %+v", in)
	}

	payload := in.Format()
	if payload != "2024|03|15|09|30|45|5|75|-1" {
		t.Errorf("Format() = %q", payload)
	}

	out, err := ParseTimeSync(payload)
	if err != nil {
		t.Fatalf("ParseTimeSync() error = %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}

	if got := out.Time(time.UTC); !got.Equal(now) {
		t.Errorf("Time() = %v, want %v", got, now)
	}
}

func TestParseTimeSyncWithoutDST(t *testing.T) {
	ts, err := ParseTimeSync("2024|03|15|09|30|45|5|75")
	if err != nil {
		t.Fatalf("ParseTimeSync() error = %v", err)
	}
	if ts.DST != -1 {
		t.Errorf("DST = %d, want -1 when omitted", ts.DST)
	}
}

func TestParseTimeSyncErrors(t *testing.T) {
	tests := []string{"", "2024|03", "2024|03|15|09|30|45|5|seventyfive"}
	for _, payload := range tests {
		if _, err := ParseTimeSync(payload); err == nil {
			t.Errorf("ParseTimeSync(%q) = nil error", payload)
		}
	}
}

func TestSpeedSyncRoundTrip(t *testing.T) {
	payload := FormatSpeedSync(0.35)
	speed, err := ParseSpeedSync(payload)
	if err != nil {
		t.Fatalf("ParseSpeedSync() error = %v", err)
	}
	if speed != 0.35 {
		t.Errorf("speed = %g, want 0.35", speed)
	}

	if _, err := ParseSpeedSync("warp nine"); err == nil {
		t.Error("ParseSpeedSync accepted a non-numeric speed")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantName string
		wantArgs int
	}{
		{"Bare", "halt_speed", "halt_speed", 0},
		{"OneArg", "set_speed|0.5", "set_speed", 1},
		{"TwoArgs", "set_speed|0.5|extra", "set_speed", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.payload)
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			if cmd.Name != tt.wantName || len(cmd.Args) != tt.wantArgs {
				t.Errorf("ParseCommand() = %+v, want name %q with %d args",
					cmd, tt.wantName, tt.wantArgs)
			}
			if cmd.Format() != tt.payload {
				t.Errorf("Format() = %q, want %q", cmd.Format(), tt.payload)
			}
		})
	}

	if _, err := ParseCommand("   "); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("ParseCommand(blank) = %v, want ErrEmptyPayload", err)
	}
}

func TestStatusKind(t *testing.T) {
	for payload, want := range map[string]string{
		"telemetry|1|0|0": StatusTelemetry,
		"shutdown":        StatusShutdown,
		"message|hello":   StatusMessage,
	} {
		kind, err := StatusKind(payload)
		if err != nil {
			t.Errorf("StatusKind(%q) error = %v", payload, err)
			continue
		}
		if kind != want {
			t.Errorf("StatusKind(%q) = %q, want %q", payload, kind, want)
		}
	}

	if _, err := StatusKind("reboot"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("StatusKind(reboot) = %v, want ErrUnknownStatus", err)
	}
}
