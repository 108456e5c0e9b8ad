package wire

import (
	"errors"
	"testing"
)

func TestPacketValidate(t *testing.T) {
	tests := []struct {
		name    string
		packet  Packet
		wantErr error
	}{
		{"Connect", Packet{Type: PacketConnect, ClientID: "bot-1"}, nil},
		{"ConnectNoClient", Packet{Type: PacketConnect}, ErrClientRequired},
		{"Subscribe", Packet{Type: PacketSubscribe, Topic: TopicCommand}, nil},
		{"SubscribeNoTopic", Packet{Type: PacketSubscribe}, ErrTopicRequired},
		{"PublishNoTopic", Packet{Type: PacketPublish}, ErrTopicRequired},
		{"Ping", Packet{Type: PacketPing}, nil},
		{"ZeroType", Packet{}, ErrInvalidPacket},
		{"UnknownType", Packet{Type: 99}, ErrInvalidPacket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.packet.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPacketCodecRoundTrip(t *testing.T) {
	in := &Packet{
		Type:    PacketPublish,
		Topic:   TopicStatus,
		Payload: []byte("telemetry|42|0.5|-0.5"),
	}

	data, err := EncodePacket(in)
	if err != nil {
		t.Fatalf("EncodePacket() error = %v", err)
	}

	out, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}

	if out.Type != in.Type || out.Topic != in.Topic || string(out.Payload) != string(in.Payload) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestEncodePacketRejectsInvalid(t *testing.T) {
	if _, err := EncodePacket(&Packet{Type: PacketSubscribe}); err == nil {
		t.Error("EncodePacket accepted a subscribe without a topic")
	}
}

func TestDecodePacketRejectsGarbage(t *testing.T) {
	if _, err := DecodePacket([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("DecodePacket accepted garbage bytes")
	}
}

func TestDecodePacketRejectsInvalidType(t *testing.T) {
	data, err := encMode.Marshal(map[int]any{1: 99})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := DecodePacket(data); err == nil {
		t.Error("DecodePacket accepted an unknown packet type")
	}
}
