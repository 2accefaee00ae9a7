// Package httpapi is the matchmaking HTTP surface: health checks, the
// matchmaking request, room lifecycle callbacks from room workers, and a
// debug view of this hub's cluster state.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bomberman-gg/hub/internal/clusterstate"
	"github.com/bomberman-gg/hub/internal/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler serves every HTTP route a hub exposes.
type Handler struct {
	coordinator *hub.Coordinator
}

// NewHandler builds a Handler over a running Coordinator.
func NewHandler(coordinator *hub.Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

// Health always returns 200 once the process is up; it does not reflect
// cluster connectivity.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready returns 200 once the Coordinator has finished initializing
// (startup discovery run, room pool provisioned), else 503 so a load
// balancer does not route matchmaking traffic to a hub still mid-join.
func (h *Handler) Ready(c *gin.Context) {
	if !h.coordinator.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "joining"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Matchmaking finds or activates a joinable room and hands its
// connection details back to the caller.
func (h *Handler) Matchmaking(c *gin.Context) {
	room, err := h.coordinator.FindOrActivateRoom()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if room == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"request_code":    "no_room_available",
			"request_message": "no joinable room could be found or activated",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request_code":    "ok",
		"request_message": "room assigned",
		"room_id":         room.RoomID,
		"room_address":    h.coordinator.ExternalAddress(),
		"room_port":       room.ExternalPort,
	})
}

// RoomStart is called by a room worker once it has begun a match.
func (h *Handler) RoomStart(c *gin.Context) {
	roomID := c.Param("id")
	h.coordinator.StartRoom(roomID)
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// RoomClose is called by a room worker when a room shuts down.
func (h *Handler) RoomClose(c *gin.Context) {
	roomID := c.Param("id")
	h.coordinator.CloseRoom(roomID)
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// Debug renders a one-shot JSON snapshot of this hub's cluster state.
func (h *Handler) Debug(c *gin.Context) {
	snapshot := h.coordinator.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"self_index":  snapshot.SelfIndex,
		"instance_id": snapshot.InstanceID,
		"peers":       describePeers(snapshot.Peers),
		"rooms":       describeRooms(snapshot.Rooms),
	})
}

// DebugWS streams the same snapshot over a WebSocket every two seconds,
// for a live operator view.
func (h *Handler) DebugWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func() error {
		snapshot := h.coordinator.Snapshot()
		return conn.WriteJSON(gin.H{
			"type":        "snapshot",
			"timestamp":   time.Now().Unix(),
			"self_index":  snapshot.SelfIndex,
			"instance_id": snapshot.InstanceID,
			"peers":       describePeers(snapshot.Peers),
			"rooms":       describeRooms(snapshot.Rooms),
		})
	}

	if err := send(); err != nil {
		return
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := send(); err != nil {
			return
		}
	}
}

func describePeers(peers []clusterstate.Peer) []gin.H {
	out := make([]gin.H, 0, len(peers))
	for _, p := range peers {
		out = append(out, gin.H{
			"index":     p.Index,
			"host":      p.Endpoint.Host,
			"port":      p.Endpoint.Port,
			"status":    p.Status.String(),
			"heartbeat": p.Heartbeat,
			"last_seen": p.LastSeen.Unix(),
		})
	}
	return out
}

func describeRooms(rooms []clusterstate.Room) []gin.H {
	out := make([]gin.H, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, gin.H{
			"room_id":       r.RoomID,
			"owner_hub":     r.OwnerHubIndex,
			"status":        r.Status.String(),
			"external_port": r.ExternalPort,
			"player_count":  r.PlayerCount,
			"max_players":   r.MaxPlayers,
			"joinable":      r.IsJoinable(),
		})
	}
	return out
}
