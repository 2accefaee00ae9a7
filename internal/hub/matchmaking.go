package hub

import (
	"fmt"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

// FindOrActivateRoom implements the matchmaking read path: prefer any
// room already joinable anywhere in the cluster, and only pay the cost of
// activating a new local room when nothing else is available.
func (c *Coordinator) FindOrActivateRoom() (*clusterstate.Room, error) {
	if room := c.state.GetActiveJoinableRoom(); room != nil {
		return room, nil
	}

	room, err := c.allocator.ActivateRoom()
	if err != nil {
		return nil, fmt.Errorf("hub: failed to activate a local room: %w", err)
	}
	if room == nil {
		return nil, nil
	}

	c.broadcastRoomActivated(room)
	return room, nil
}

// StartRoom transitions a locally-owned room out of the joinable pool and
// tells the cluster, called when the matchmaking surface reports a room
// has started its match.
func (c *Coordinator) StartRoom(roomID string) {
	c.state.SetRoomStatus(roomID, clusterstate.RoomPlaying)
	c.broadcastRoomStarted(roomID)
}

// CloseRoom returns a locally-owned room to the dormant pool and tells
// the cluster, mirroring handleRoomClosed's effect on every other hub's
// directory entry for the same room.
func (c *Coordinator) CloseRoom(roomID string) {
	c.state.SetRoomStatus(roomID, clusterstate.RoomDormant)
	c.broadcastRoomClosed(roomID)
}
