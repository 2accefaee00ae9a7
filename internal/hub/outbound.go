package hub

import (
	"fmt"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/wire"
)

// broadcastPeerAlive announces this hub's own liveness, used on startup
// and as a self-rebuttal whenever another peer wrongly suspects us.
func (c *Coordinator) broadcastPeerAlive() {
	msg := c.newMessage(wire.EventPeerAlive)
	msg.PeerAlive = &wire.PeerAlivePayload{AliveIndex: c.config.SelfIndex}
	fmt.Printf("📣 [hub %d] broadcasting peerAlive\n", c.config.SelfIndex)
	c.sendAndForward(msg)
}

// broadcastPeerLeave announces a graceful departure, so peers mark us
// dead immediately instead of waiting out the failure detector timeout.
func (c *Coordinator) broadcastPeerLeave() {
	msg := c.newMessage(wire.EventPeerLeave)
	msg.PeerLeave = &wire.PeerLeavePayload{LeavingIndex: c.config.SelfIndex}
	fmt.Printf("📣 [hub %d] broadcasting peerLeave\n", c.config.SelfIndex)
	c.sendAndForward(msg)
}

// broadcastPeerSuspicious announces that we locally suspect a peer; this
// is gossiped so the suspected hub itself can rebut it. Other hubs ignore
// it and rely on their own failure detectors.
func (c *Coordinator) broadcastPeerSuspicious(index int) {
	msg := c.newMessage(wire.EventPeerSuspicious)
	msg.PeerSuspicious = &wire.PeerSuspiciousPayload{SuspiciousIndex: index}
	fmt.Printf("⚠️ [hub %d] broadcasting peerSuspicious for hub %d\n", c.config.SelfIndex, index)
	c.sendAndForward(msg)
}

// broadcastPeerDead announces that we locally consider a peer dead.
func (c *Coordinator) broadcastPeerDead(index int) {
	msg := c.newMessage(wire.EventPeerDead)
	msg.PeerDead = &wire.PeerDeadPayload{DeadIndex: index}
	fmt.Printf("💀 [hub %d] broadcasting peerDead for hub %d\n", c.config.SelfIndex, index)
	c.sendAndForward(msg)
}

// broadcastRoomActivated announces a newly-joinable room.
func (c *Coordinator) broadcastRoomActivated(room *clusterstate.Room) {
	msg := c.newMessage(wire.EventRoomActivated)
	msg.RoomActivated = &wire.RoomActivatedPayload{
		RoomID:          room.RoomID,
		OwnerHub:        room.OwnerHubIndex,
		ExternalPort:    room.ExternalPort,
		ExternalAddress: c.config.externalAddress(),
		MaxPlayers:      room.MaxPlayers,
	}
	fmt.Printf("📣 [hub %d] broadcasting roomActivated for %s\n", c.config.SelfIndex, room.RoomID)
	c.sendAndForward(msg)
}

// broadcastRoomStarted announces a room has left the joinable pool
// because it began a match.
func (c *Coordinator) broadcastRoomStarted(roomID string) {
	msg := c.newMessage(wire.EventRoomStarted)
	msg.RoomStarted = &wire.RoomStartedPayload{RoomID: roomID}
	fmt.Printf("📣 [hub %d] broadcasting roomStarted for %s\n", c.config.SelfIndex, roomID)
	c.sendAndForward(msg)
}

// broadcastRoomClosed announces a room has closed and returned to its
// owner's dormant pool.
func (c *Coordinator) broadcastRoomClosed(roomID string) {
	msg := c.newMessage(wire.EventRoomClosed)
	msg.RoomClosed = &wire.RoomClosedPayload{RoomID: roomID}
	fmt.Printf("📣 [hub %d] broadcasting roomClosed for %s\n", c.config.SelfIndex, roomID)
	c.sendAndForward(msg)
}
