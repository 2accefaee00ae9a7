package failuredetector

import (
	"testing"
	"time"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

func TestCheckPeers_SuspectsAfterSuspectTimeout(t *testing.T) {
	state := clusterstate.New()
	state.AddPeer(clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}))

	peer, _ := state.GetPeer(1)
	peer.LastSeen = time.Now().Add(-10 * time.Second)

	var suspected, dead []int
	d := New(state, 0, Config{SuspectTimeout: 5 * time.Second, DeadTimeout: 20 * time.Second, CheckInterval: time.Second},
		func(i int) { suspected = append(suspected, i) },
		func(i int) { dead = append(dead, i) })

	d.checkPeers()

	if len(suspected) != 1 || suspected[0] != 1 {
		t.Fatalf("expected peer 1 to be suspected, got %v", suspected)
	}
	if len(dead) != 0 {
		t.Fatalf("expected no dead callbacks yet, got %v", dead)
	}
	refreshed, _ := state.GetPeer(1)
	if refreshed.Status != clusterstate.StatusSuspected {
		t.Fatalf("expected status suspected, got %v", refreshed.Status)
	}
}

func TestCheckPeers_DeadAfterDeadTimeout(t *testing.T) {
	state := clusterstate.New()
	state.AddPeer(clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}))

	peer, _ := state.GetPeer(1)
	peer.LastSeen = time.Now().Add(-30 * time.Second)

	var dead []int
	d := New(state, 0, Config{SuspectTimeout: 5 * time.Second, DeadTimeout: 20 * time.Second, CheckInterval: time.Second},
		func(int) {},
		func(i int) { dead = append(dead, i) })

	d.checkPeers()

	if len(dead) != 1 || dead[0] != 1 {
		t.Fatalf("expected peer 1 to be declared dead, got %v", dead)
	}
}

func TestCheckPeers_SkipsSelf(t *testing.T) {
	state := clusterstate.New()
	state.AddPeer(clusterstate.NewPeer(0, clusterstate.Endpoint{Host: "h", Port: 0}))

	peer, _ := state.GetPeer(0)
	peer.LastSeen = time.Now().Add(-time.Hour)

	called := false
	d := New(state, 0, DefaultConfig(), func(int) { called = true }, func(int) { called = true })
	d.checkPeers()

	if called {
		t.Fatal("expected self to never be suspected or declared dead")
	}
}

func TestCheckPeers_FreshPeerUntouched(t *testing.T) {
	state := clusterstate.New()
	state.AddPeer(clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}))

	called := false
	d := New(state, 0, DefaultConfig(), func(int) { called = true }, func(int) { called = true })
	d.checkPeers()

	if called {
		t.Fatal("expected a freshly-seen peer to not trigger any transition")
	}
}
