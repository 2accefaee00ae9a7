package clusterstate

import "testing"

func TestApplyHeartbeatObservation_UnknownPeerRejected(t *testing.T) {
	s := New()
	if s.ApplyHeartbeatObservation(1, 1, false) {
		t.Fatal("expected observation about an unknown peer to be rejected")
	}
}

func TestApplyHeartbeatObservation_StaleNonceRejected(t *testing.T) {
	s := New()
	s.AddPeer(NewPeer(1, Endpoint{Host: "h", Port: 1}))

	if !s.ApplyHeartbeatObservation(1, 5, false) {
		t.Fatal("expected first observation to be accepted")
	}
	if s.ApplyHeartbeatObservation(1, 5, false) {
		t.Fatal("expected duplicate nonce to be rejected")
	}
	if s.ApplyHeartbeatObservation(1, 3, false) {
		t.Fatal("expected stale nonce to be rejected")
	}
}

func TestApplyHeartbeatObservation_LeaveFromDeadIsSuppressed(t *testing.T) {
	s := New()
	s.AddPeer(NewPeer(1, Endpoint{Host: "h", Port: 1}))
	s.SetPeerStatus(1, StatusDead)

	if s.ApplyHeartbeatObservation(1, 10, true) {
		t.Fatal("expected a leave about an already-dead peer to be suppressed")
	}
}

func TestApplyHeartbeatObservation_ResurrectsDeadPeer(t *testing.T) {
	s := New()
	s.AddPeer(NewPeer(1, Endpoint{Host: "h", Port: 1}))
	s.SetPeerStatus(1, StatusDead)

	if !s.ApplyHeartbeatObservation(1, 10, false) {
		t.Fatal("expected a fresh non-leave heartbeat to resurrect a dead peer")
	}
	peer, _ := s.GetPeer(1)
	if peer.Status != StatusAlive {
		t.Fatalf("expected resurrected peer to be alive, got %v", peer.Status)
	}
}

func TestApplyHeartbeatObservation_LeavingMarksDead(t *testing.T) {
	s := New()
	s.AddPeer(NewPeer(1, Endpoint{Host: "h", Port: 1}))

	if !s.ApplyHeartbeatObservation(1, 10, true) {
		t.Fatal("expected a fresh leave observation to be accepted")
	}
	peer, _ := s.GetPeer(1)
	if peer.Status != StatusDead {
		t.Fatalf("expected peer marked dead after leave, got %v", peer.Status)
	}
}

func TestGetAllNotDead_ExcludesDeadAndSelf(t *testing.T) {
	s := New()
	s.AddPeer(NewPeer(0, Endpoint{Host: "h", Port: 0}))
	s.AddPeer(NewPeer(1, Endpoint{Host: "h", Port: 1}))
	s.AddPeer(NewPeer(2, Endpoint{Host: "h", Port: 2}))
	s.SetPeerStatus(2, StatusDead)

	peers := s.GetAllNotDead(0)
	if len(peers) != 1 || peers[0].Index != 1 {
		t.Fatalf("expected only peer 1, got %v", peers)
	}
}

func TestRemoveRoomsOwnedBy(t *testing.T) {
	s := New()
	s.AddRoom(&Room{RoomID: "a", OwnerHubIndex: 1})
	s.AddRoom(&Room{RoomID: "b", OwnerHubIndex: 2})

	s.RemoveRoomsOwnedBy(1)

	if s.GetRoom("a") != nil {
		t.Fatal("expected room a to be evicted")
	}
	if s.GetRoom("b") == nil {
		t.Fatal("expected room b to survive")
	}
}

func TestGetActiveJoinableRoom(t *testing.T) {
	s := New()
	s.AddRoom(&Room{RoomID: "full", Status: RoomActive, PlayerCount: 4, MaxPlayers: 4})
	s.AddRoom(&Room{RoomID: "dormant", Status: RoomDormant, MaxPlayers: 4})
	s.AddRoom(&Room{RoomID: "open", Status: RoomActive, PlayerCount: 1, MaxPlayers: 4})

	room := s.GetActiveJoinableRoom()
	if room == nil || room.RoomID != "open" {
		t.Fatalf("expected to find the joinable room, got %v", room)
	}
}
