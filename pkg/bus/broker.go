package bus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/minsky-robotics/minsky-go/pkg/buslog"
	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

// Broker errors.
var (
	ErrBrokerRunning    = errors.New("broker already running")
	ErrBrokerNotRunning = errors.New("broker not running")
	ErrExpectedConnect  = errors.New("first packet must be CONNECT")
)

// BrokerConfig configures a Broker.
type BrokerConfig struct {
	// Address to listen on (e.g., ":1883" or "127.0.0.1:0").
	Address string

	// Logger for operational output (optional).
	Logger *slog.Logger

	// OnConnect is called after a client completes its CONNECT handshake.
	OnConnect func(clientID string)

	// OnDisconnect is called when a client's connection closes.
	OnDisconnect func(clientID string)

	// Recorder receives a traffic event per handled packet (optional).
	Recorder buslog.Recorder
}

// Broker is the bus server: it accepts client connections and fans PUBLISH
// packets out to every connection subscribed to the packet's topic.
type Broker struct {
	config   BrokerConfig
	logger   *slog.Logger
	recorder buslog.Recorder

	listener net.Listener

	// Active connections and the topic subscription table.
	mu    sync.RWMutex
	conns map[*brokerConn]struct{}
	subs  map[string]map[*brokerConn]struct{}

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// brokerConn is one client connection as the broker sees it.
type brokerConn struct {
	id       string // connection ID for logging, assigned at accept
	clientID string // client-chosen ID from CONNECT
	conn     net.Conn
	writer   *FrameWriter
}

func (bc *brokerConn) send(p *wire.Packet) error {
	data, err := wire.EncodePacket(p)
	if err != nil {
		return err
	}
	return bc.writer.WriteFrame(data)
}

// NewBroker creates a new broker.
func NewBroker(config BrokerConfig) *Broker {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	recorder := config.Recorder
	if recorder == nil {
		recorder = buslog.NoopRecorder{}
	}
	return &Broker{
		config:   config,
		logger:   logger,
		recorder: recorder,
		conns:    make(map[*brokerConn]struct{}),
		subs:     make(map[string]map[*brokerConn]struct{}),
	}
}

// Start begins accepting connections. It returns once the listener is bound;
// serving continues on background goroutines until Stop or ctx cancellation.
func (b *Broker) Start(ctx context.Context) error {
	if b.running.Load() {
		return ErrBrokerRunning
	}

	b.ctx, b.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", b.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	b.listener = listener
	b.running.Store(true)

	b.logger.Info("broker listening", "addr", listener.Addr())

	b.wg.Add(1)
	go b.acceptLoop()

	return nil
}

// Stop closes the listener and every connection and waits for the serving
// goroutines to drain.
func (b *Broker) Stop() error {
	if !b.running.Load() {
		return ErrBrokerNotRunning
	}
	b.running.Store(false)
	b.cancel()
	b.listener.Close()

	b.mu.Lock()
	for bc := range b.conns {
		bc.conn.Close()
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}

// Addr returns the bound listener address, for clients connecting to an
// ephemeral port.
func (b *Broker) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

func (b *Broker) acceptLoop() {
	defer b.wg.Done()

	for {
		conn, err := b.listener.Accept()
		if err != nil {
			if b.ctx.Err() != nil || !b.running.Load() {
				return
			}
			b.logger.Warn("accept failed", "err", err)
			continue
		}

		bc := &brokerConn{
			id:     uuid.New().String(),
			conn:   conn,
			writer: NewFrameWriter(conn),
		}

		b.wg.Add(1)
		go b.handleConn(bc)
	}
}

func (b *Broker) handleConn(bc *brokerConn) {
	defer b.wg.Done()
	defer b.dropConn(bc)

	reader := NewFrameReader(bc.conn)

	// The session opens with a CONNECT/CONNACK exchange.
	if err := b.handshake(bc, reader); err != nil {
		b.logger.Warn("handshake failed", "conn", bc.id, "err", err)
		return
	}

	b.mu.Lock()
	b.conns[bc] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("client connected", "conn", bc.id, "client", bc.clientID)
	if b.config.OnConnect != nil {
		b.config.OnConnect(bc.clientID)
	}

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			if err != io.EOF && b.ctx.Err() == nil {
				b.logger.Debug("read failed", "conn", bc.id, "err", err)
			}
			return
		}

		packet, err := wire.DecodePacket(frame)
		if err != nil {
			b.logger.Warn("bad packet", "conn", bc.id, "err", err)
			continue
		}

		b.record(bc, buslog.DirectionIn, packet)

		switch packet.Type {
		case wire.PacketSubscribe:
			b.subscribe(bc, packet.Topic)
		case wire.PacketUnsubscribe:
			b.unsubscribe(bc, packet.Topic)
		case wire.PacketPublish:
			b.fanOut(packet)
		case wire.PacketPing:
			if err := bc.send(&wire.Packet{Type: wire.PacketPong}); err != nil {
				return
			}
		case wire.PacketDisconnect:
			return
		default:
			b.logger.Warn("unexpected packet", "conn", bc.id, "type", packet.Type)
		}
	}
}

func (b *Broker) handshake(bc *brokerConn, reader *FrameReader) error {
	frame, err := reader.ReadFrame()
	if err != nil {
		return err
	}
	packet, err := wire.DecodePacket(frame)
	if err != nil {
		return err
	}
	if packet.Type != wire.PacketConnect {
		return fmt.Errorf("%w: got %s", ErrExpectedConnect, packet.Type)
	}
	bc.clientID = packet.ClientID
	return bc.send(&wire.Packet{Type: wire.PacketConnack})
}

func (b *Broker) subscribe(bc *brokerConn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*brokerConn]struct{})
		b.subs[topic] = set
	}
	set[bc] = struct{}{}
	b.logger.Debug("subscribed", "client", bc.clientID, "topic", topic)
}

func (b *Broker) unsubscribe(bc *brokerConn, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[topic]; ok {
		delete(set, bc)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
}

// fanOut delivers a publish to every subscriber of its topic, including the
// publisher itself when subscribed. Delivery is at-most-once: a failed write
// drops that subscriber's copy.
func (b *Broker) fanOut(packet *wire.Packet) {
	b.mu.RLock()
	targets := make([]*brokerConn, 0, len(b.subs[packet.Topic]))
	for bc := range b.subs[packet.Topic] {
		targets = append(targets, bc)
	}
	b.mu.RUnlock()

	out := &wire.Packet{Type: wire.PacketPublish, Topic: packet.Topic, Payload: packet.Payload}
	for _, bc := range targets {
		b.record(bc, buslog.DirectionOut, out)
		if err := bc.send(out); err != nil {
			b.logger.Debug("delivery failed", "client", bc.clientID,
				"topic", packet.Topic, "err", err)
		}
	}
}

func (b *Broker) record(bc *brokerConn, direction buslog.Direction, packet *wire.Packet) {
	b.recorder.Record(buslog.Event{
		Timestamp:  time.Now(),
		ClientID:   bc.clientID,
		Direction:  direction,
		Type:       packet.Type,
		Topic:      packet.Topic,
		Payload:    packet.Payload,
		RemoteAddr: bc.conn.RemoteAddr().String(),
	})
}

func (b *Broker) dropConn(bc *brokerConn) {
	bc.conn.Close()

	b.mu.Lock()
	_, known := b.conns[bc]
	delete(b.conns, bc)
	for topic, set := range b.subs {
		delete(set, bc)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()

	if known {
		b.logger.Debug("client disconnected", "conn", bc.id, "client", bc.clientID)
		if b.config.OnDisconnect != nil {
			b.config.OnDisconnect(bc.clientID)
		}
	}
}
