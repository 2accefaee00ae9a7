// Package hub implements the Gossip Coordinator: the component that owns
// this hub's identity, composes and sends gossip, dedupes and forwards
// what it receives, dispatches event handlers against the cluster state,
// and drives peer discovery.
package hub

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/failuredetector"
	"github.com/bomberman-gg/hub/internal/roomalloc"
	"github.com/bomberman-gg/hub/internal/roomprobe"
	"github.com/bomberman-gg/hub/internal/sparsity"
	"github.com/bomberman-gg/hub/internal/transport"
	"github.com/bomberman-gg/hub/internal/wire"
)

// Coordinator is the hub's gossip brain. One Coordinator exists per hub
// process.
type Coordinator struct {
	config     Config
	instanceID string // uuid, distinguishes restarts of the same hub index in /debug/

	state     *clusterstate.State
	endpoint  *transport.Endpoint
	detector  *failuredetector.Detector
	sparsity  *sparsity.Monitor
	prober    *roomprobe.Prober
	allocator roomalloc.Allocator

	nonce uint64 // monotonic, atomic; last value handed out by nextNonce
	ready int32  // atomic bool, set once Start has finished initializing
}

// New wires a Coordinator and every component it owns together, but does
// not yet bind any socket or start any loop — call Start for that. The
// room allocator is supplied afterward via SetAllocator, since building
// one typically needs a callback bound to this Coordinator.
func New(config Config) *Coordinator {
	c := &Coordinator{
		config:     config,
		instanceID: uuid.New().String(),
		state:      clusterstate.New(),
	}

	c.detector = failuredetector.New(c.state, c.config.SelfIndex, c.config.failureDetectorConfig(),
		c.onPeerSuspected, c.onPeerDead)

	fanout := c.config.Fanout
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	c.config.Fanout = fanout

	sparsityInterval := c.config.SparsityCheckInterval
	if sparsityInterval <= 0 {
		sparsityInterval = sparsity.DefaultCheckInterval
	}
	c.sparsity = sparsity.New(c.state, c.config.SelfIndex, fanout, sparsityInterval, c.onInsufficientPeers)

	c.prober = roomprobe.New(c.state, roomprobe.DefaultConfig(), c.onRoomUnhealthy)

	return c
}

// SetAllocator attaches the room allocator this hub will use. Must be
// called before Start.
func (c *Coordinator) SetAllocator(allocator roomalloc.Allocator) {
	c.allocator = allocator
}

// HandleRoomActivated is the callback a room allocator invokes once it
// flips a room to active; it only updates local bookkeeping; the
// broadcast to the rest of the cluster is owned by whoever triggered the
// activation (see FindOrActivateRoom).
//
// The directory gets its own copy rather than the allocator's pointer:
// the allocator keeps that *Room in its own pool map guarded by its own
// lock, and clusterstate.State mutates the directory's copy under
// state's lock from then on (StartRoom, CloseRoom, the gossip handlers).
// Aliasing the two would let both locks race on the same Status field.
func (c *Coordinator) HandleRoomActivated(room *clusterstate.Room) {
	directoryCopy := *room
	c.state.AddRoom(&directoryCopy)
}

// Start binds the datagram endpoint, seeds this hub's own peer entry,
// starts every periodic loop, runs initial discovery, and provisions the
// local room pool.
func (c *Coordinator) Start() error {
	endpoint, err := transport.Listen(c.config.GossipPort, c.onDatagram)
	if err != nil {
		return fmt.Errorf("hub: failed to bind gossip endpoint: %w", err)
	}
	c.endpoint = endpoint

	self := clusterstate.NewPeer(c.config.SelfIndex, c.selfEndpoint())
	self.Heartbeat = c.nextNonce()
	c.state.AddPeer(self)

	c.detector.Start()
	c.sparsity.Start()
	c.prober.Start()

	if err := c.allocator.InitializePool(); err != nil {
		return fmt.Errorf("hub: failed to initialize room pool: %w", err)
	}

	c.broadcastPeerAlive()
	c.runDiscovery()

	atomic.StoreInt32(&c.ready, 1)
	return nil
}

// Ready reports whether Start has finished initializing this hub.
func (c *Coordinator) Ready() bool {
	return atomic.LoadInt32(&c.ready) == 1
}

// Shutdown broadcasts a graceful peerLeave, stops every periodic loop,
// closes the socket, and tears down locally-owned rooms.
func (c *Coordinator) Shutdown() {
	c.broadcastPeerLeave()

	c.detector.Stop()
	c.sparsity.Stop()
	c.prober.Stop()

	if c.endpoint != nil {
		c.endpoint.Close()
	}

	c.allocator.Cleanup()
}

// State exposes the cluster state for read-only collaborators (the HTTP
// matchmaking surface, the debug endpoint).
func (c *Coordinator) State() *clusterstate.State {
	return c.state
}

// InstanceID is this process's restart-distinguishing debug handle.
func (c *Coordinator) InstanceID() string {
	return c.instanceID
}

// ExternalAddress is the host this hub advertises to players reaching a
// room it activates.
func (c *Coordinator) ExternalAddress() string {
	return c.config.externalAddress()
}

func (c *Coordinator) nextNonce() uint64 {
	return atomic.AddUint64(&c.nonce, 1)
}

func (c *Coordinator) selfEndpoint() clusterstate.Endpoint {
	return computeEndpoint(c.config, c.config.SelfIndex)
}

// sendAndForward picks a random subset of non-dead peers of size
// min(fanout, |candidates|) and sends a self-authored msg to them.
func (c *Coordinator) sendAndForward(msg *wire.GossipMessage) {
	c.validateOrigin(msg)
	candidates := c.state.GetAllNotDead(c.config.SelfIndex)
	targets := randomSubset(candidates, c.config.Fanout)
	c.sendMany(msg, targets)
}

// sendSpecific unicasts a self-authored msg to exactly one peer, used by
// discovery.
func (c *Coordinator) sendSpecific(msg *wire.GossipMessage, peer clusterstate.Endpoint) {
	c.validateOrigin(msg)
	c.endpoint.Send(msg, peer)
}

// sendMany delivers msg as-is to the given peers. Unlike sendAndForward
// and sendSpecific it does not require msg.Origin to be self, since the
// forwarding path re-sends messages this hub did not author.
func (c *Coordinator) sendMany(msg *wire.GossipMessage, peers []*clusterstate.Peer) {
	endpoints := make([]clusterstate.Endpoint, len(peers))
	for i, p := range peers {
		endpoints[i] = p.Endpoint
	}
	c.endpoint.SendMany(msg, endpoints)
}

// validateOrigin enforces that only this Coordinator's own gossip ever
// flows out through the broadcast/unicast paths. A mismatch is a
// programmer error, not a runtime condition to recover from.
func (c *Coordinator) validateOrigin(msg *wire.GossipMessage) {
	if msg.Origin != c.config.SelfIndex {
		panic(fmt.Sprintf("hub: refusing to send gossip message authored by peer %d as self (index %d)", msg.Origin, c.config.SelfIndex))
	}
}

func (c *Coordinator) newMessage(eventType wire.EventType) *wire.GossipMessage {
	return &wire.GossipMessage{
		Nonce:       c.nextNonce(),
		Origin:      c.config.SelfIndex,
		ForwardedBy: c.config.SelfIndex,
		Timestamp:   time.Now().Unix(),
		EventType:   eventType,
	}
}

// randomSubset returns a uniformly random subset of peers of size
// min(n, len(peers)). Randomness must be per-message to keep the gossip
// topology from partitioning into long-lived cliques (design note:
// "Randomness in fanout").
func randomSubset(peers []*clusterstate.Peer, n int) []*clusterstate.Peer {
	if n >= len(peers) {
		out := make([]*clusterstate.Peer, len(peers))
		copy(out, peers)
		return out
	}

	shuffled := make([]*clusterstate.Peer, len(peers))
	copy(shuffled, peers)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
