package buslog

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Recorder receives bus traffic events. Implementations must be safe
// for concurrent use; the broker records from its connection
// goroutines.
type Recorder interface {
	Record(event Event)
}

// NoopRecorder discards all events. Usable as a zero value.
type NoopRecorder struct{}

func (NoopRecorder) Record(Event) {}

var _ Recorder = NoopRecorder{}

// FileRecorder appends CBOR-encoded events to a file.
type FileRecorder struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// NewFileRecorder opens path for appending, creating it with 0644 if
// missing.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		file:    f,
		encoder: NewEncoder(f),
	}, nil
}

// Record appends one event. Encoding errors are dropped so recording
// never disrupts the broker.
func (r *FileRecorder) Record(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	_ = r.encoder.Encode(event)
}

// Close closes the log file. Safe to call more than once; Record
// calls after Close are ignored.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

var _ Recorder = (*FileRecorder)(nil)
