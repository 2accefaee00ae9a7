// Package transport binds the UDP socket that carries gossip datagrams
// between hubs.
package transport

import (
	"fmt"
	"net"
	"strconv"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// Handler is invoked once per successfully-decoded inbound datagram, in
// its own goroutine. It must be safe for concurrent invocation.
type Handler func(msg *wire.GossipMessage, sender clusterstate.Endpoint)

// Endpoint is a UDP datagram transport for GossipMessage envelopes.
type Endpoint struct {
	conn    net.PacketConn
	handler Handler
}

// Listen binds a UDP socket on 0.0.0.0:port and starts the receive loop.
// Inbound datagrams are decoded and handed to handler concurrently.
func Listen(port int, handler Handler) (*Endpoint, error) {
	conn, err := net.ListenPacket("udp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return nil, err
	}

	ep := &Endpoint{conn: conn, handler: handler}
	go ep.receiveLoop()
	return ep, nil
}

func (e *Endpoint) receiveLoop() {
	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, addr, err := e.conn.ReadFrom(buf)
		if err != nil {
			// Socket closed by Close(): unblock and exit quietly.
			return
		}

		frame := make([]byte, n)
		copy(frame, buf[:n])

		go e.handleFrame(frame, addr)
	}
}

func (e *Endpoint) handleFrame(frame []byte, addr net.Addr) {
	msg, err := wire.Decode(frame)
	if err != nil {
		fmt.Printf("❌ [transport] failed to decode datagram from %s: %v\n", addr, err)
		return
	}

	sender, err := toEndpoint(addr)
	if err != nil {
		fmt.Printf("❌ [transport] bad sender address %s: %v\n", addr, err)
		return
	}

	e.handler(msg, sender)
}

func toEndpoint(addr net.Addr) (clusterstate.Endpoint, error) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return clusterstate.Endpoint{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return clusterstate.Endpoint{}, err
	}
	return clusterstate.Endpoint{Host: host, Port: port}, nil
}

// Send serializes msg once and sends it to a single peer. A transient
// failure is logged and swallowed.
func (e *Endpoint) Send(msg *wire.GossipMessage, peer clusterstate.Endpoint) {
	e.SendMany(msg, []clusterstate.Endpoint{peer})
}

// SendMany serializes msg once and dispatches it to every peer. A
// per-destination failure is logged and does not abort the batch.
func (e *Endpoint) SendMany(msg *wire.GossipMessage, peers []clusterstate.Endpoint) {
	data, err := wire.Encode(msg)
	if err != nil {
		fmt.Printf("❌ [transport] failed to encode %s message: %v\n", msg.EventType, err)
		return
	}

	for _, peer := range peers {
		dest := fmt.Sprintf("%s:%d", peer.Host, peer.Port)
		addr, err := net.ResolveUDPAddr("udp", dest)
		if err != nil {
			fmt.Printf("❌ [transport] DNS resolution failed for %s: %v\n", dest, err)
			continue
		}
		if _, err := e.conn.WriteTo(data, addr); err != nil {
			fmt.Printf("❌ [transport] failed to send to %s: %v\n", dest, err)
		}
	}
}

// Close shuts down the socket, unblocking the receive loop.
func (e *Endpoint) Close() error {
	return e.conn.Close()
}
