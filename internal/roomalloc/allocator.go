// Package roomalloc is the room allocator collaborator: it owns creation
// and bookkeeping of the rooms this hub hosts locally. The matchmaking
// and gossip layers only ever see it through the Allocator interface.
package roomalloc

import "github.com/bomberman-gg/hub/internal/clusterstate"

// PoolSize is the number of dormant rooms LocalAllocator provisions up
// front. K8sAllocator starts with a single room.
const PoolSize = 3

// Allocator creates and tracks the rooms owned by this hub.
type Allocator interface {
	// InitializePool provisions the starting set of dormant rooms.
	InitializePool() error
	// ActivateRoom flips a dormant room to active, or provisions a new
	// one if the pool is exhausted. Returns nil if none could be made
	// available.
	ActivateRoom() (*clusterstate.Room, error)
	// GetAllLocal returns every room owned by this hub.
	GetAllLocal() []*clusterstate.Room
	// Cleanup tears down every locally-owned room.
	Cleanup()
}
