package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// Service identity of the broker on the local network.
const (
	ServiceType = "_minsky-bus._tcp"
	Domain      = "local."
)

var ErrNoBrokerFound = errors.New("no broker found")

// Advertiser publishes a broker instance over mDNS until stopped.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an idle advertiser.
func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Advertise starts announcing the broker under instance on the given
// port. Calling it again replaces the previous announcement.
func (a *Advertiser) Advertise(instance string, port int, txt []string) error {
	if instance == "" {
		return fmt.Errorf("instance name must not be empty")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register broker service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the announcement. Safe to call when idle.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Broker describes a discovered broker instance.
type Broker struct {
	Instance  string
	Host      string
	Port      int
	Addresses []net.IP
	Text      []string
}

// Addr returns a dialable host:port for the broker, preferring a
// concrete IP address over the advertised hostname.
func (b *Broker) Addr() string {
	host := b.Host
	if len(b.Addresses) > 0 {
		host = b.Addresses[0].String()
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", b.Port))
}

// Lookup browses for brokers and returns the first one seen. The
// context bounds the wait; a cancelled or expired context yields
// ErrNoBrokerFound.
func Lookup(ctx context.Context) (*Broker, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Broker, 1)

	go func() {
		for range removed {
		}
	}()

	go func() {
		for entry := range entries {
			broker := entryToBroker(entry)
			if broker == nil {
				continue
			}
			select {
			case found <- broker:
			default:
			}
			cancel()
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed)
	}()

	<-ctx.Done()
	select {
	case broker := <-found:
		return broker, nil
	default:
		return nil, ErrNoBrokerFound
	}
}

func entryToBroker(entry *zeroconf.ServiceEntry) *Broker {
	if entry == nil || entry.Port == 0 {
		return nil
	}
	addresses := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	addresses = append(addresses, entry.AddrIPv4...)
	addresses = append(addresses, entry.AddrIPv6...)
	return &Broker{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      entry.Port,
		Addresses: addresses,
		Text:      entry.Text,
	}
}
