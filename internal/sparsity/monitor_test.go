package sparsity

import (
	"testing"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

func TestCheckPeerCount_TriggersBelowFanout(t *testing.T) {
	state := clusterstate.New()
	state.AddPeer(clusterstate.NewPeer(1, clusterstate.Endpoint{Host: "h", Port: 1}))

	triggered := false
	m := New(state, 0, 4, DefaultCheckInterval, func() { triggered = true })
	m.checkPeerCount()

	if !triggered {
		t.Fatal("expected insufficient-peer callback with 1 peer and fanout 4")
	}
}

func TestCheckPeerCount_NoTriggerWhenSufficient(t *testing.T) {
	state := clusterstate.New()
	for i := 1; i <= 4; i++ {
		state.AddPeer(clusterstate.NewPeer(i, clusterstate.Endpoint{Host: "h", Port: i}))
	}

	triggered := false
	m := New(state, 0, 4, DefaultCheckInterval, func() { triggered = true })
	m.checkPeerCount()

	if triggered {
		t.Fatal("expected no callback once peer count meets fanout")
	}
}

func TestCheckPeerCount_SuspectedCountsAsNotDead(t *testing.T) {
	state := clusterstate.New()
	for i := 1; i <= 4; i++ {
		state.AddPeer(clusterstate.NewPeer(i, clusterstate.Endpoint{Host: "h", Port: i}))
	}
	state.SetPeerStatus(1, clusterstate.StatusSuspected)

	triggered := false
	m := New(state, 0, 4, DefaultCheckInterval, func() { triggered = true })
	m.checkPeerCount()

	if triggered {
		t.Fatal("expected a merely-suspected peer to still count toward fanout")
	}
}
