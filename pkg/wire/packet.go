package wire

import (
	"errors"
	"fmt"
)

// Topic constants for the MinskyBot application.
const (
	// TopicRequestSync is published by the bot to ask the controller for
	// a time sync.
	TopicRequestSync = "minskybot/REQUEST_SYNC_TOPIC"

	// TopicTimeSync carries wall-clock synchronisation to the bot.
	TopicTimeSync = "minskybot/TIME_SYNC_TOPIC"

	// TopicSpeedSync carries absolute speed targets to the bot.
	TopicSpeedSync = "minskybot/SPEED_SYNC_TOPIC"

	// TopicCommand carries motion and life-cycle commands to the bot.
	TopicCommand = "minskybot/COMMAND_TOPIC"

	// TopicStatus carries telemetry and shutdown notices from the bot.
	TopicStatus = "minskybot/STATUS_TOPIC"
)

// Packet errors.
var (
	ErrInvalidPacket  = errors.New("invalid packet")
	ErrTopicRequired  = errors.New("topic required")
	ErrClientRequired = errors.New("client id required")
)

// PacketType identifies a bus packet.
type PacketType uint8

const (
	// PacketConnect opens a session; carries the client ID.
	PacketConnect PacketType = iota + 1

	// PacketConnack acknowledges a connect.
	PacketConnack

	// PacketSubscribe adds a topic subscription.
	PacketSubscribe

	// PacketUnsubscribe removes a topic subscription.
	PacketUnsubscribe

	// PacketPublish delivers a payload on a topic.
	PacketPublish

	// PacketPing is a keepalive probe.
	PacketPing

	// PacketPong answers a ping.
	PacketPong

	// PacketDisconnect closes a session cleanly.
	PacketDisconnect
)

// String returns the packet type name.
func (t PacketType) String() string {
	switch t {
	case PacketConnect:
		return "CONNECT"
	case PacketConnack:
		return "CONNACK"
	case PacketSubscribe:
		return "SUBSCRIBE"
	case PacketUnsubscribe:
		return "UNSUBSCRIBE"
	case PacketPublish:
		return "PUBLISH"
	case PacketPing:
		return "PING"
	case PacketPong:
		return "PONG"
	case PacketDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether the type is a known packet type.
func (t PacketType) IsValid() bool {
	return t >= PacketConnect && t <= PacketDisconnect
}

// Packet is the bus envelope.
//
// CBOR encoding:
//
//	{
//	  1: type,      // uint8
//	  2: clientId,  // text, CONNECT only
//	  3: topic,     // text, SUBSCRIBE/UNSUBSCRIBE/PUBLISH
//	  4: payload    // bytes, PUBLISH only
//	}
type Packet struct {
	Type     PacketType `cbor:"1,keyasint"`
	ClientID string     `cbor:"2,keyasint,omitempty"`
	Topic    string     `cbor:"3,keyasint,omitempty"`
	Payload  []byte     `cbor:"4,keyasint,omitempty"`
}

// Validate checks the packet against its type's requirements.
func (p *Packet) Validate() error {
	if !p.Type.IsValid() {
		return fmt.Errorf("%w: type %d", ErrInvalidPacket, p.Type)
	}
	switch p.Type {
	case PacketConnect:
		if p.ClientID == "" {
			return ErrClientRequired
		}
	case PacketSubscribe, PacketUnsubscribe, PacketPublish:
		if p.Topic == "" {
			return ErrTopicRequired
		}
	}
	return nil
}
