package buslog

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

// Event is one recorded packet. CBOR encoding uses integer keys for
// compactness.
type Event struct {
	// Timestamp when the packet was handled (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ClientID is the bus client the packet came from or went to.
	ClientID string `cbor:"2,keyasint"`

	// Direction of the packet as seen from the broker.
	Direction Direction `cbor:"3,keyasint"`

	// Type is the packet type.
	Type wire.PacketType `cbor:"4,keyasint"`

	// Topic of the packet, when it carries one.
	Topic string `cbor:"5,keyasint,omitempty"`

	// Payload of PUBLISH packets.
	Payload []byte `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`
}

// Direction indicates packet flow as seen from the broker.
type Direction uint8

const (
	// DirectionIn is a packet received from a client.
	DirectionIn Direction = 0
	// DirectionOut is a packet sent to a client.
	DirectionOut Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// encMode uses RFC3339Nano timestamps so recorded events keep
// nanosecond precision across a round trip.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
}

// NewEncoder returns a CBOR encoder for event streams.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder for event streams.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
