package hub

import (
	"errors"
	"testing"
	"time"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// stubAllocator is a roomalloc.Allocator test double that never touches
// the network or a real pool, so matchmaking logic can be exercised in
// isolation.
type stubAllocator struct {
	activated []*clusterstate.Room
	next      *clusterstate.Room
	err       error
	cleaned   bool
}

func (a *stubAllocator) InitializePool() error { return nil }

func (a *stubAllocator) ActivateRoom() (*clusterstate.Room, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.activated = append(a.activated, a.next)
	return a.next, nil
}

func (a *stubAllocator) GetAllLocal() []*clusterstate.Room { return nil }

func (a *stubAllocator) Cleanup() { a.cleaned = true }

// newTestCoordinator builds a Coordinator wired for in-process testing:
// no bound socket, no running loops, just state and config, matching
// what every handler under test actually touches.
func newTestCoordinator(selfIndex int) *Coordinator {
	cfg := Config{SelfIndex: selfIndex, Fanout: DefaultFanout, DiscoveryMode: DiscoveryManual}
	c := New(cfg)
	c.SetAllocator(&stubAllocator{})
	return c
}

func TestOnDatagram_DuplicateNonceDispatchedOnce(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(0, clusterstate.Endpoint{Host: "h", Port: 0}))
	c.state.AddPeer(clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}))

	msg := &wire.GossipMessage{
		Nonce:     1,
		Origin:    1,
		EventType: wire.EventPeerAlive,
		PeerAlive: &wire.PeerAlivePayload{AliveIndex: 1},
	}

	c.onDatagram(msg, clusterstate.Endpoint{Host: "h", Port: 1})

	peer, _ := c.state.GetPeer(1)
	rewound := peer.LastSeen.Add(-time.Minute)
	peer.LastSeen = rewound

	c.onDatagram(msg, clusterstate.Endpoint{Host: "h", Port: 1})

	refreshed, _ := c.state.GetPeer(1)
	if !refreshed.LastSeen.Equal(rewound) {
		t.Fatal("expected the duplicate nonce to be rejected without re-dispatching handlePeerAlive")
	}
}

func TestExcludeForwarder_DropsOnlyForwardingPeer(t *testing.T) {
	peers := []*clusterstate.Peer{
		clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}),
		clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}),
		clusterstate.NewPeer(3, clusterstate.Endpoint{Host: "h", Port: 3}),
	}

	filtered := excludeForwarder(peers, 2)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 peers remaining, got %d", len(filtered))
	}
	for _, p := range filtered {
		if p.Index == 2 {
			t.Fatal("expected the forwarding peer to be excluded")
		}
	}
}

func TestExcludeForwarder_NoMatchLeavesAllPeers(t *testing.T) {
	peers := []*clusterstate.Peer{
		clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}),
		clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}),
	}

	filtered := excludeForwarder(peers, 99)

	if len(filtered) != 2 {
		t.Fatalf("expected both peers to remain, got %d", len(filtered))
	}
}

func TestHandlePeerSuspicious_SelfRebuts(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(0, clusterstate.Endpoint{Host: "h", Port: 0}))

	msg := &wire.GossipMessage{
		Origin:         1,
		EventType:      wire.EventPeerSuspicious,
		PeerSuspicious: &wire.PeerSuspiciousPayload{SuspiciousIndex: 0},
	}
	c.handlePeerSuspicious(msg)

	if c.nonce == 0 {
		t.Fatal("expected self-rebuttal to broadcast a freshly-nonced peerAlive")
	}
}

func TestHandlePeerSuspicious_IgnoresSuspicionAboutOtherPeers(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}))

	msg := &wire.GossipMessage{
		Origin:         1,
		EventType:      wire.EventPeerSuspicious,
		PeerSuspicious: &wire.PeerSuspiciousPayload{SuspiciousIndex: 2},
	}
	c.handlePeerSuspicious(msg)

	peer, _ := c.state.GetPeer(2)
	if peer.Status != clusterstate.StatusAlive {
		t.Fatalf("expected a remote suspicion about another peer to be ignored, got %v", peer.Status)
	}
}

func TestHandlePeerDead_IgnoredWhenLocallyAlive(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}))
	c.state.AddRoom(&clusterstate.Room{RoomID: "r1", OwnerHubIndex: 2, Status: clusterstate.RoomActive})

	msg := &wire.GossipMessage{
		Origin:    1,
		EventType: wire.EventPeerDead,
		PeerDead:  &wire.PeerDeadPayload{DeadIndex: 2},
	}
	c.handlePeerDead(msg)

	peer, _ := c.state.GetPeer(2)
	if peer.Status != clusterstate.StatusAlive {
		t.Fatalf("expected an alive peer to survive an uncorroborated dead claim, got %v", peer.Status)
	}
	if room := c.state.GetRoom("r1"); room == nil {
		t.Fatal("expected room to survive since owner was never locally suspected")
	}
}

func TestHandlePeerDead_EscalatesSuspectedPeerAndEvictsRooms(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}))
	c.state.SetPeerStatus(2, clusterstate.StatusSuspected)
	c.state.AddRoom(&clusterstate.Room{RoomID: "r1", OwnerHubIndex: 2, Status: clusterstate.RoomActive})

	msg := &wire.GossipMessage{
		Origin:    1,
		EventType: wire.EventPeerDead,
		PeerDead:  &wire.PeerDeadPayload{DeadIndex: 2},
	}
	c.handlePeerDead(msg)

	peer, _ := c.state.GetPeer(2)
	if peer.Status != clusterstate.StatusDead {
		t.Fatalf("expected peer 2 to be marked dead, got %v", peer.Status)
	}
	if room := c.state.GetRoom("r1"); room != nil {
		t.Fatal("expected room owned by the now-dead peer to be evicted")
	}
}

func TestHandlePeerDead_UnknownIndexDoesNotPanic(t *testing.T) {
	c := newTestCoordinator(0)

	msg := &wire.GossipMessage{
		Origin:    1,
		EventType: wire.EventPeerDead,
		PeerDead:  &wire.PeerDeadPayload{DeadIndex: 99},
	}
	c.handlePeerDead(msg)
}

func TestHandlePeerLeave_EvictsDepartingPeersRooms(t *testing.T) {
	c := newTestCoordinator(0)
	c.state.AddPeer(clusterstate.NewPeer(2, clusterstate.Endpoint{Host: "h", Port: 2}))
	c.state.AddRoom(&clusterstate.Room{RoomID: "r1", OwnerHubIndex: 2, Status: clusterstate.RoomActive})

	msg := &wire.GossipMessage{
		Origin:    1,
		EventType: wire.EventPeerLeave,
		PeerLeave: &wire.PeerLeavePayload{LeavingIndex: 2},
	}
	c.handlePeerLeave(msg)

	peer, _ := c.state.GetPeer(2)
	if peer.Status != clusterstate.StatusDead {
		t.Fatalf("expected the departing peer to be marked dead, got %v", peer.Status)
	}
	if room := c.state.GetRoom("r1"); room != nil {
		t.Fatal("expected the departing peer's room to be evicted immediately")
	}
}

func TestFindOrActivateRoom_PrefersExistingJoinableRoom(t *testing.T) {
	c := newTestCoordinator(0)
	existing := &clusterstate.Room{RoomID: "existing", OwnerHubIndex: 1, Status: clusterstate.RoomActive, MaxPlayers: 4}
	c.state.AddRoom(existing)

	alloc := &stubAllocator{next: &clusterstate.Room{RoomID: "fresh"}}
	c.SetAllocator(alloc)

	room, err := c.FindOrActivateRoom()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.RoomID != "existing" {
		t.Fatalf("expected the existing joinable room to be preferred, got %s", room.RoomID)
	}
	if len(alloc.activated) != 0 {
		t.Fatal("expected the allocator to never be consulted when a joinable room already exists")
	}
}

func TestFindOrActivateRoom_ActivatesWhenNoneJoinable(t *testing.T) {
	c := newTestCoordinator(0)
	alloc := &stubAllocator{next: &clusterstate.Room{RoomID: "fresh", OwnerHubIndex: 0, Status: clusterstate.RoomActive, MaxPlayers: 4}}
	c.SetAllocator(alloc)

	room, err := c.FindOrActivateRoom()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.RoomID != "fresh" {
		t.Fatalf("expected the newly-activated room to be returned, got %s", room.RoomID)
	}
	if len(alloc.activated) != 1 {
		t.Fatal("expected the allocator to be consulted exactly once")
	}
}

func TestFindOrActivateRoom_PropagatesAllocatorError(t *testing.T) {
	c := newTestCoordinator(0)
	c.SetAllocator(&stubAllocator{err: errors.New("pool exhausted")})

	if _, err := c.FindOrActivateRoom(); err == nil {
		t.Fatal("expected allocator error to propagate")
	}
}
