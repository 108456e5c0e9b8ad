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

	"github.com/minsky-robotics/minsky-go/pkg/wire"
)

// Client errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnackExpected  = errors.New("expected CONNACK")
)

// DefaultQueueSize is the default inbound publish queue length.
const DefaultQueueSize = 64

// MessageHandler handles a publish delivered to a subscribed topic.
// Handlers run on the goroutine that calls Poll, never on the reader.
type MessageHandler func(topic string, payload []byte)

// ClientConfig configures a bus Client.
type ClientConfig struct {
	// ClientID identifies this client to the broker.
	// Auto-generated when empty.
	ClientID string

	// ConnectTimeout bounds the dial and handshake (default: 10s).
	ConnectTimeout time.Duration

	// QueueSize is the inbound publish queue length (default: 64).
	// When the queue is full the oldest message is dropped.
	QueueSize int

	// Logger for operational output (optional).
	Logger *slog.Logger

	// OnConnect is called after the CONNECT/CONNACK handshake completes.
	OnConnect func(c *Client)

	// OnDisconnect is called from the reader goroutine when the
	// connection drops; err is nil on a clean disconnect.
	OnDisconnect func(c *Client, err error)
}

// inbound is a queued publish awaiting Poll.
type inbound struct {
	topic   string
	payload []byte
}

// Client is a bus client. One connection, per-topic handlers, and a
// Poll-based dispatch model that keeps handler execution on the owner's
// goroutine.
type Client struct {
	config ClientConfig
	logger *slog.Logger

	mu       sync.Mutex
	conn     net.Conn
	writer   *FrameWriter
	handlers map[string]MessageHandler
	catchAll MessageHandler

	queue     chan inbound
	connected atomic.Bool
	closeOnce sync.Once
}

// NewClient creates a new bus client.
func NewClient(config ClientConfig) *Client {
	if config.ClientID == "" {
		config.ClientID = "minsky-" + uuid.New().String()
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.QueueSize == 0 {
		config.QueueSize = DefaultQueueSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		config:   config,
		logger:   logger,
		handlers: make(map[string]MessageHandler),
	}
}

// ClientID returns the identifier this client connects with.
func (c *Client) ClientID() string { return c.config.ClientID }

// IsConnected reports whether the client has a live connection.
func (c *Client) IsConnected() bool { return c.connected.Load() }

// Connect dials the broker and completes the CONNECT/CONNACK handshake,
// then starts the reader goroutine.
func (c *Client) Connect(ctx context.Context, address string) error {
	if c.connected.Load() {
		return ErrAlreadyConnected
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	writer := NewFrameWriter(conn)
	reader := NewFrameReader(conn)

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	connect := &wire.Packet{Type: wire.PacketConnect, ClientID: c.config.ClientID}
	data, err := wire.EncodePacket(connect)
	if err != nil {
		conn.Close()
		return err
	}
	if err := writer.WriteFrame(data); err != nil {
		conn.Close()
		return fmt.Errorf("connect send failed: %w", err)
	}

	frame, err := reader.ReadFrame()
	if err != nil {
		conn.Close()
		return fmt.Errorf("connack read failed: %w", err)
	}
	ack, err := wire.DecodePacket(frame)
	if err != nil {
		conn.Close()
		return err
	}
	if ack.Type != wire.PacketConnack {
		conn.Close()
		return fmt.Errorf("%w: got %s", ErrConnackExpected, ack.Type)
	}

	conn.SetDeadline(time.Time{})

	c.mu.Lock()
	c.conn = conn
	c.writer = writer
	c.mu.Unlock()

	c.queue = make(chan inbound, c.config.QueueSize)
	c.closeOnce = sync.Once{}
	c.connected.Store(true)

	go c.readLoop(reader)

	c.logger.Debug("connected", "client", c.config.ClientID, "addr", address)
	if c.config.OnConnect != nil {
		c.config.OnConnect(c)
	}
	return nil
}

// Subscribe registers a handler for topic and tells the broker to deliver
// its publishes. A second subscribe to the same topic replaces the handler.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	c.mu.Lock()
	c.handlers[topic] = handler
	c.mu.Unlock()
	return c.send(&wire.Packet{Type: wire.PacketSubscribe, Topic: topic})
}

// Unsubscribe removes the topic handler and the broker-side subscription.
func (c *Client) Unsubscribe(topic string) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	c.mu.Lock()
	delete(c.handlers, topic)
	c.mu.Unlock()
	return c.send(&wire.Packet{Type: wire.PacketUnsubscribe, Topic: topic})
}

// OnMessage sets a catch-all handler for publishes on topics without a
// registered handler.
func (c *Client) OnMessage(handler MessageHandler) {
	c.mu.Lock()
	c.catchAll = handler
	c.mu.Unlock()
}

// Publish sends a payload on a topic.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return c.send(&wire.Packet{Type: wire.PacketPublish, Topic: topic, Payload: payload})
}

// PublishString sends a text payload on a topic.
func (c *Client) PublishString(topic, payload string) error {
	return c.Publish(topic, []byte(payload))
}

// Ping sends a keepalive probe.
func (c *Client) Ping() error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	return c.send(&wire.Packet{Type: wire.PacketPing})
}

// Poll drains the inbound queue, dispatching each queued publish to its
// topic handler (or the catch-all) on the calling goroutine. It never
// blocks; it returns the number of messages dispatched.
//
// This is the integration point for the bot's cooperative loop: call Poll
// once per loop iteration.
func (c *Client) Poll() int {
	dispatched := 0
	for {
		select {
		case m := <-c.queue:
			c.dispatch(m)
			dispatched++
		default:
			return dispatched
		}
	}
}

// Disconnect sends a DISCONNECT and closes the connection.
func (c *Client) Disconnect() error {
	if !c.connected.Load() {
		return ErrNotConnected
	}
	// Best effort: the close matters more than the farewell packet.
	_ = c.send(&wire.Packet{Type: wire.PacketDisconnect})
	c.teardown(nil)
	return nil
}

func (c *Client) send(p *wire.Packet) error {
	data, err := wire.EncodePacket(p)
	if err != nil {
		return err
	}

	c.mu.Lock()
	writer := c.writer
	c.mu.Unlock()
	if writer == nil {
		return ErrNotConnected
	}
	return writer.WriteFrame(data)
}

func (c *Client) readLoop(reader *FrameReader) {
	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				err = nil
			}
			c.teardown(err)
			return
		}

		packet, err := wire.DecodePacket(frame)
		if err != nil {
			c.logger.Warn("bad packet", "client", c.config.ClientID, "err", err)
			continue
		}

		switch packet.Type {
		case wire.PacketPublish:
			c.enqueue(inbound{topic: packet.Topic, payload: packet.Payload})
		case wire.PacketPing:
			_ = c.send(&wire.Packet{Type: wire.PacketPong})
		case wire.PacketPong:
			// Keepalive answered; nothing to do.
		case wire.PacketDisconnect:
			c.teardown(nil)
			return
		default:
			c.logger.Warn("unexpected packet", "client", c.config.ClientID,
				"type", packet.Type)
		}
	}
}

// enqueue adds a publish to the Poll queue, dropping the oldest message
// when the queue is full.
func (c *Client) enqueue(m inbound) {
	for {
		select {
		case c.queue <- m:
			return
		default:
		}
		select {
		case old := <-c.queue:
			c.logger.Warn("queue full, dropping oldest",
				"client", c.config.ClientID, "topic", old.topic)
		default:
		}
	}
}

func (c *Client) dispatch(m inbound) {
	c.mu.Lock()
	handler := c.handlers[m.topic]
	if handler == nil {
		handler = c.catchAll
	}
	c.mu.Unlock()

	if handler != nil {
		handler(m.topic, m.payload)
	}
}

func (c *Client) teardown(err error) {
	c.closeOnce.Do(func() {
		c.connected.Store(false)

		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.writer = nil
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("connection lost", "client", c.config.ClientID, "err", err)
		} else {
			c.logger.Debug("disconnected", "client", c.config.ClientID)
		}
		if c.config.OnDisconnect != nil {
			c.config.OnDisconnect(c, err)
		}
	})
}
