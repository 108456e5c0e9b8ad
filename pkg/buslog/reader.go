package buslog

import (
	"errors"
	"io"
	"os"
	"time"
)

// Filter narrows what Read returns. Zero fields match everything.
type Filter struct {
	// ClientID filters by exact client ID.
	ClientID string

	// Direction filters by packet direction.
	Direction *Direction

	// Topic filters by exact topic.
	Topic string

	// TimeStart keeps events at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps events before this time.
	TimeEnd *time.Time
}

func (f *Filter) matches(event Event) bool {
	if f.ClientID != "" && event.ClientID != f.ClientID {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Topic != "" && event.Topic != f.Topic {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	return true
}

// Read decodes all events from r that match the filter. A nil filter
// matches everything.
func Read(r io.Reader, filter *Filter) ([]Event, error) {
	decoder := NewDecoder(r)

	var events []Event
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, err
		}
		if filter == nil || filter.matches(event) {
			events = append(events, event)
		}
	}
}

// ReadFile reads a recorded log file, applying the filter.
func ReadFile(path string, filter *Filter) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f, filter)
}
