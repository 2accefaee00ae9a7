// Package wire defines the GossipMessage envelope exchanged between hubs
// and its binary codec. Field tags are the wire schema and must stay
// stable across releases.
package wire

// EventType discriminates which payload field of GossipMessage is set.
type EventType uint8

const (
	EventPeerJoin EventType = iota
	EventPeerLeave
	EventPeerAlive
	EventPeerSuspicious
	EventPeerDead
	EventRoomActivated
	EventRoomStarted
	EventRoomClosed
)

func (t EventType) String() string {
	switch t {
	case EventPeerJoin:
		return "peerJoin"
	case EventPeerLeave:
		return "peerLeave"
	case EventPeerAlive:
		return "peerAlive"
	case EventPeerSuspicious:
		return "peerSuspicious"
	case EventPeerDead:
		return "peerDead"
	case EventRoomActivated:
		return "roomActivated"
	case EventRoomStarted:
		return "roomStarted"
	case EventRoomClosed:
		return "roomClosed"
	default:
		return "unknown"
	}
}

// GossipMessage is the single envelope carried over the datagram
// transport. Only the payload field matching EventType is meaningful;
// the others are left at their zero value on the wire.
type GossipMessage struct {
	Nonce       uint64    `codec:"nonce"`
	Origin      int       `codec:"origin"`
	ForwardedBy int       `codec:"forwarded_by"`
	Timestamp   int64     `codec:"timestamp"`
	EventType   EventType `codec:"event_type"`

	PeerJoin       *PeerJoinPayload       `codec:"peer_join,omitempty"`
	PeerLeave      *PeerLeavePayload      `codec:"peer_leave,omitempty"`
	PeerAlive      *PeerAlivePayload      `codec:"peer_alive,omitempty"`
	PeerSuspicious *PeerSuspiciousPayload `codec:"peer_suspicious,omitempty"`
	PeerDead       *PeerDeadPayload       `codec:"peer_dead,omitempty"`
	RoomActivated  *RoomActivatedPayload  `codec:"room_activated,omitempty"`
	RoomStarted    *RoomStartedPayload    `codec:"room_started,omitempty"`
	RoomClosed     *RoomClosedPayload     `codec:"room_closed,omitempty"`
}

type PeerJoinPayload struct {
	JoiningIndex int `codec:"joining_index"`
}

type PeerLeavePayload struct {
	LeavingIndex int `codec:"leaving_index"`
}

type PeerAlivePayload struct {
	AliveIndex int `codec:"alive_index"`
}

type PeerSuspiciousPayload struct {
	SuspiciousIndex int `codec:"suspicious_index"`
}

type PeerDeadPayload struct {
	DeadIndex int `codec:"dead_index"`
}

type RoomActivatedPayload struct {
	RoomID          string `codec:"room_id"`
	OwnerHub        int    `codec:"owner_hub"`
	ExternalPort    int    `codec:"external_port"`
	ExternalAddress string `codec:"external_address"`
	MaxPlayers      int    `codec:"max_players"`
}

type RoomStartedPayload struct {
	RoomID string `codec:"room_id"`
}

type RoomClosedPayload struct {
	RoomID string `codec:"room_id"`
}

// IsLeaving reports whether this message represents a peer's graceful
// departure, the one case the dedup rule treats specially.
func (m *GossipMessage) IsLeaving() bool {
	return m.EventType == EventPeerLeave
}
