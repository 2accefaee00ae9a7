package hub

import "github.com/bomberman-gg/hub/internal/clusterstate"

// Snapshot is a point-in-time view of this hub's cluster state, rendered
// for the debug surface.
type Snapshot struct {
	SelfIndex  int                 `json:"self_index"`
	InstanceID string              `json:"instance_id"`
	Peers      []clusterstate.Peer `json:"peers"`
	Rooms      []clusterstate.Room `json:"rooms"`
}

// Snapshot takes a consistent read of every peer and room known to this
// hub, for /debug and /debug/ws. It copies each entry out while holding
// the state lock so the caller can read it at leisure without racing
// the gossip loop's in-place mutations.
func (c *Coordinator) Snapshot() Snapshot {
	return Snapshot{
		SelfIndex:  c.config.SelfIndex,
		InstanceID: c.instanceID,
		Peers:      c.state.SnapshotPeers(),
		Rooms:      c.state.SnapshotRooms(),
	}
}
