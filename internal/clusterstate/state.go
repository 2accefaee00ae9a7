package clusterstate

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidIndex is returned by GetPeer for a negative peer index.
var ErrInvalidIndex = errors.New("clusterstate: peer index must not be negative")

// State is the single source of truth for peer membership and the room
// directory. Every mutation, by any component, goes through its lock.
type State struct {
	mu    sync.RWMutex
	peers map[int]*Peer
	rooms map[string]*Room
}

// New creates an empty State.
func New() *State {
	return &State{
		peers: make(map[int]*Peer),
		rooms: make(map[string]*Room),
	}
}

// AddPeer installs peer at its index, overwriting any prior entry.
func (s *State) AddPeer(peer *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[peer.Index] = peer
}

// GetPeer returns the peer at index, or nil if unknown. A negative index
// is a programmer error and returns ErrInvalidIndex.
func (s *State) GetPeer(index int) (*Peer, error) {
	if index < 0 {
		return nil, ErrInvalidIndex
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peers[index], nil
}

// MarkForwardAlive records that a datagram evidencing liveness of index
// arrived via endpoint. It creates the peer if this is the first time it
// has been observed; otherwise it refreshes LastSeen and sets it alive.
func (s *State) MarkForwardAlive(index int, endpoint Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peer, exists := s.peers[index]
	if !exists {
		s.peers[index] = NewPeer(index, endpoint)
		return
	}
	peer.LastSeen = time.Now()
	peer.Status = StatusAlive
}

// ApplyHeartbeatObservation is the central heartbeat freshness rule. It
// returns true iff the observation was fresh enough to accept, dispatch,
// and forward. See spec §4.1 for the five cases implemented here.
func (s *State) ApplyHeartbeatObservation(originIndex int, receivedNonce uint64, isLeaving bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	peer, exists := s.peers[originIndex]
	if !exists {
		return false
	}

	// Suppress leave propagation from an already-dead peer.
	if peer.Status == StatusDead && isLeaving {
		return false
	}

	// Resurrection: a dead peer heartbeating again always wins.
	if peer.Status == StatusDead && !isLeaving {
		peer.Heartbeat = receivedNonce
		peer.Status = StatusAlive
		peer.LastSeen = time.Now()
		return true
	}

	if receivedNonce > peer.Heartbeat {
		peer.Heartbeat = receivedNonce
		if isLeaving {
			peer.Status = StatusDead
		} else {
			peer.Status = StatusAlive
		}
		// Any accepted observation, not just explicit peerAlive,
		// refreshes lastSeen.
		peer.LastSeen = time.Now()
		return true
	}

	return false
}

// RemovePeer marks index dead without deleting its entry.
func (s *State) RemovePeer(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if peer, ok := s.peers[index]; ok {
		peer.Status = StatusDead
	}
}

// GetAllNotDead returns every peer not in StatusDead, excluding excludeIndex.
// Suspected peers count as "not dead" on purpose (spec §4.4).
func (s *State) GetAllNotDead(excludeIndex int) []*Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Peer, 0, len(s.peers))
	for idx, peer := range s.peers {
		if idx == excludeIndex {
			continue
		}
		if peer.Status != StatusDead {
			out = append(out, peer)
		}
	}
	return out
}

// MarkPeerExplicitlyAlive handles a peerAlive event: refresh LastSeen and
// force the status back to alive.
func (s *State) MarkPeerExplicitlyAlive(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if peer, ok := s.peers[index]; ok {
		peer.LastSeen = time.Now()
		peer.Status = StatusAlive
	}
}

// SetPeerStatus is an unguarded status write, used by the failure
// detector which has already decided the transition.
func (s *State) SetPeerStatus(index int, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if peer, ok := s.peers[index]; ok {
		peer.Status = status
	}
}

// AddRoom installs or overwrites a room in the directory.
func (s *State) AddRoom(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.RoomID] = room
}

// GetRoom returns the room by id, or nil if unknown.
func (s *State) GetRoom(roomID string) *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// GetActiveJoinableRoom returns the first joinable room found, or nil.
func (s *State) GetActiveJoinableRoom() *Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, room := range s.rooms {
		if room.IsJoinable() {
			return room
		}
	}
	return nil
}

// SnapshotPeers returns a value copy of every known peer, safe to read
// after the lock is released (unlike the live *Peer values `State`
// hands other components, whose fields other goroutines keep mutating
// in place).
func (s *State) SnapshotPeers() []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Peer, 0, len(s.peers))
	for _, peer := range s.peers {
		out = append(out, *peer)
	}
	return out
}

// SnapshotRooms returns a value copy of every room in the directory,
// safe to read after the lock is released.
func (s *State) SnapshotRooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, *room)
	}
	return out
}

// SetRoomStatus updates a known room's status; unknown ids are ignored
// (late status update arriving before the activation event, or after
// purge — eventual consistency, not an error).
func (s *State) SetRoomStatus(roomID string, status RoomStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[roomID]; ok {
		room.Status = status
	}
}

// RemoveRoomsOwnedBy deletes every room whose owner is hubIndex, used
// when a peer is declared dead.
func (s *State) RemoveRoomsOwnedBy(hubIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, room := range s.rooms {
		if room.OwnerHubIndex == hubIndex {
			delete(s.rooms, id)
		}
	}
}
