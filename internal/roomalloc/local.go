package roomalloc

import (
	"fmt"
	"sync"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

// localRoomPortStart is the base room-manager port,
// offset per-hub so colocated hubs in a single-machine test cluster
// never collide.
const localRoomPortStart = 20001

// LocalAllocator simulates rooms in memory, for local testing without a
// container orchestrator. It never actually spawns a room worker process.
type LocalAllocator struct {
	hubIndex        int
	onRoomActivated func(*clusterstate.Room)

	mu    sync.Mutex
	rooms map[string]*clusterstate.Room
	next  int
}

// NewLocalAllocator creates a LocalAllocator for the given hub index.
// onRoomActivated is invoked synchronously after a room transitions to
// active, so the caller can record it in the room directory.
func NewLocalAllocator(hubIndex int, onRoomActivated func(*clusterstate.Room)) *LocalAllocator {
	return &LocalAllocator{
		hubIndex:        hubIndex,
		onRoomActivated: onRoomActivated,
		rooms:           make(map[string]*clusterstate.Room),
	}
}

func (a *LocalAllocator) InitializePool() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := 0; i < PoolSize; i++ {
		a.createAndRegisterLocked(i)
	}
	a.next = PoolSize - 1
	return nil
}

func (a *LocalAllocator) createAndRegisterLocked(index int) {
	roomID := fmt.Sprintf("hub%d-%d", a.hubIndex, index)
	port := localRoomPortStart + a.hubIndex*100 + index

	room := &clusterstate.Room{
		RoomID:          roomID,
		OwnerHubIndex:   a.hubIndex,
		Status:          clusterstate.RoomDormant,
		ExternalPort:    port,
		InternalService: fmt.Sprintf("localhost:%d", port),
		MaxPlayers:      4,
	}
	a.rooms[roomID] = room
	fmt.Printf("🛠️ [roomalloc] created simulated room %s on port %d\n", roomID, port)
}

func (a *LocalAllocator) ActivateRoom() (*clusterstate.Room, error) {
	a.mu.Lock()
	for _, room := range a.rooms {
		if room.Status == clusterstate.RoomDormant {
			room.Status = clusterstate.RoomActive
			a.mu.Unlock()
			fmt.Printf("✅ [roomalloc] activated room %s\n", room.RoomID)
			a.onRoomActivated(room)
			return room, nil
		}
	}

	a.next++
	index := a.next
	a.createAndRegisterLocked(index)
	room := a.rooms[fmt.Sprintf("hub%d-%d", a.hubIndex, index)]
	room.Status = clusterstate.RoomActive
	a.mu.Unlock()

	fmt.Printf("✅ [roomalloc] activated newly-provisioned room %s\n", room.RoomID)
	a.onRoomActivated(room)
	return room, nil
}

func (a *LocalAllocator) GetAllLocal() []*clusterstate.Room {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*clusterstate.Room, 0, len(a.rooms))
	for _, room := range a.rooms {
		out = append(out, room)
	}
	return out
}

func (a *LocalAllocator) Cleanup() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id := range a.rooms {
		fmt.Printf("🧹 [roomalloc] simulating room deletion: %s\n", id)
	}
	a.rooms = make(map[string]*clusterstate.Room)
}
