package hub

import (
	"fmt"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// handlePeerJoin records a newly-joined peer and replies with our own
// peerAlive so the joiner's initial view of the cluster converges faster
// than waiting for the next gossip round to carry it.
func (c *Coordinator) handlePeerJoin(msg *wire.GossipMessage) {
	join := msg.PeerJoin
	if join == nil {
		return
	}
	endpoint := computeEndpoint(c.config, join.JoiningIndex)
	c.state.MarkForwardAlive(join.JoiningIndex, endpoint)
	fmt.Printf("👋 [hub %d] peer %d joined\n", c.config.SelfIndex, join.JoiningIndex)

	reply := c.newMessage(wire.EventPeerAlive)
	reply.PeerAlive = &wire.PeerAlivePayload{AliveIndex: c.config.SelfIndex}
	c.sendSpecific(reply, endpoint)
}

// handlePeerLeave marks a peer dead immediately and evicts its rooms; a
// graceful leave carries certainty a suspicion timeout never has, so it
// doesn't wait for peerDead corroboration the way an ordinary failure
// does.
func (c *Coordinator) handlePeerLeave(msg *wire.GossipMessage) {
	leave := msg.PeerLeave
	if leave == nil {
		return
	}
	c.state.RemovePeer(leave.LeavingIndex)
	c.state.RemoveRoomsOwnedBy(leave.LeavingIndex)
	fmt.Printf("👋 [hub %d] peer %d left gracefully\n", c.config.SelfIndex, leave.LeavingIndex)
}

// handlePeerAlive marks a peer alive. If it names us, it's a rebuttal
// arriving back through the gossip fabric after someone suspected us;
// ApplyHeartbeatObservation in the inbound pipeline already refreshed the
// canonical record, so there is nothing further to do here for our own
// index beyond the log line.
func (c *Coordinator) handlePeerAlive(msg *wire.GossipMessage) {
	alive := msg.PeerAlive
	if alive == nil {
		return
	}
	c.state.MarkPeerExplicitlyAlive(alive.AliveIndex)
	if alive.AliveIndex == c.config.SelfIndex {
		fmt.Printf("🛡️ [hub %d] saw my own rebuttal propagate back\n", c.config.SelfIndex)
	}
}

// handlePeerSuspicious handles another hub's report that it suspects a
// peer; nothing is recorded in the cluster state. If the suspected peer is us, we rebut immediately rather than waiting
// for our own failure detector to notice nothing is actually wrong.
// Suspicion raised about any other peer is ignored outright: we trust
// our own failure detector, not a remote hub's say-so, about anyone but
// ourselves.
func (c *Coordinator) handlePeerSuspicious(msg *wire.GossipMessage) {
	susp := msg.PeerSuspicious
	if susp == nil {
		return
	}
	if susp.SuspiciousIndex == c.config.SelfIndex {
		fmt.Printf("🙅 [hub %d] rebutting suspicion raised by hub %d\n", c.config.SelfIndex, msg.Origin)
		c.broadcastPeerAlive()
	}
}

// handlePeerDead applies the "dead is local" rule: a remote peerDead
// claim only escalates a peer we ourselves already consider suspected. A
// peer we still see as alive is never dropped on someone else's say-so
// alone — our own failure detector has to agree first.
func (c *Coordinator) handlePeerDead(msg *wire.GossipMessage) {
	dead := msg.PeerDead
	if dead == nil {
		return
	}
	peer, err := c.state.GetPeer(dead.DeadIndex)
	if err != nil || peer == nil {
		return
	}
	if peer.Status != clusterstate.StatusSuspected {
		return
	}
	c.state.SetPeerStatus(dead.DeadIndex, clusterstate.StatusDead)
	c.state.RemoveRoomsOwnedBy(dead.DeadIndex)
	fmt.Printf("💀 [hub %d] corroborated hub %d as dead, evicting its rooms\n", c.config.SelfIndex, dead.DeadIndex)
}

// handleRoomActivated learns of a joinable room hosted by another hub.
func (c *Coordinator) handleRoomActivated(msg *wire.GossipMessage) {
	ra := msg.RoomActivated
	if ra == nil {
		return
	}
	room := &clusterstate.Room{
		RoomID:          ra.RoomID,
		OwnerHubIndex:   ra.OwnerHub,
		Status:          clusterstate.RoomActive,
		ExternalPort:    ra.ExternalPort,
		InternalService: "",
		MaxPlayers:      ra.MaxPlayers,
	}
	c.state.AddRoom(room)
	fmt.Printf("🚪 [hub %d] learned of room %s hosted by hub %d\n", c.config.SelfIndex, ra.RoomID, ra.OwnerHub)
}

// handleRoomStarted marks a room no longer joinable because its match
// has begun.
func (c *Coordinator) handleRoomStarted(msg *wire.GossipMessage) {
	rs := msg.RoomStarted
	if rs == nil {
		return
	}
	c.state.SetRoomStatus(rs.RoomID, clusterstate.RoomPlaying)
}

// handleRoomClosed returns a known room to the dormant pool on its
// owning hub; it is not purged from the directory here (unknown ids are
// ignored — eventual consistency).
func (c *Coordinator) handleRoomClosed(msg *wire.GossipMessage) {
	rc := msg.RoomClosed
	if rc == nil {
		return
	}
	c.state.SetRoomStatus(rc.RoomID, clusterstate.RoomDormant)
}

// onPeerSuspected is the failure detector's callback for the
// alive->suspected transition.
func (c *Coordinator) onPeerSuspected(index int) {
	fmt.Printf("⚠️ [hub %d] locally suspecting hub %d\n", c.config.SelfIndex, index)
	c.broadcastPeerSuspicious(index)
}

// onPeerDead is the failure detector's callback for the ->dead
// transition. Unlike a remote peerDead claim, our own detector's
// verdict is authoritative for our local view without needing
// corroboration, so we evict the peer's rooms immediately and then
// broadcast so the rest of the cluster converges.
func (c *Coordinator) onPeerDead(index int) {
	fmt.Printf("💀 [hub %d] locally declaring hub %d dead\n", c.config.SelfIndex, index)
	c.state.RemoveRoomsOwnedBy(index)
	c.broadcastPeerDead(index)
}

// onRoomUnhealthy is the room health prober's callback, fired when one of
// our own rooms fails the "still waiting for players" check: the match
// has moved on without going through the normal start callback, so we
// record it as playing and tell the cluster. The prober only probes
// rooms carrying an InternalService, which is only ever set for rooms we
// own (handleRoomActivated always leaves it blank for rooms learned from
// another hub), so this is never called for a remote room.
func (c *Coordinator) onRoomUnhealthy(room *clusterstate.Room) {
	fmt.Printf("🏥 [hub %d] local room %s left waiting state, marking playing\n", c.config.SelfIndex, room.RoomID)
	c.StartRoom(room.RoomID)
}
