// Package failuredetector classifies peers alive -> suspected -> dead
// based on last-seen recency.
package failuredetector

import (
	"time"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

// Config holds the detector's timing knobs, all overridable from the
// FAILURE_DETECTOR_* environment variables.
type Config struct {
	SuspectTimeout time.Duration
	DeadTimeout    time.Duration
	CheckInterval  time.Duration
}

// DefaultConfig returns the default detector timings.
func DefaultConfig() Config {
	return Config{
		SuspectTimeout: 5 * time.Second,
		DeadTimeout:    20 * time.Second,
		CheckInterval:  1 * time.Second,
	}
}

// Detector periodically scans the cluster state and fires callbacks on
// status transitions.
type Detector struct {
	config  Config
	state   *clusterstate.State
	myIndex int

	onPeerSuspected func(index int)
	onPeerDead      func(index int)

	stop chan struct{}
	done chan struct{}
}

// New creates a Detector. onPeerSuspected and onPeerDead are invoked
// synchronously from the detector's own goroutine — callers that need to
// do I/O (send gossip) should keep the callback itself lightweight.
func New(state *clusterstate.State, myIndex int, config Config, onPeerSuspected, onPeerDead func(int)) *Detector {
	return &Detector{
		config:          config,
		state:           state,
		myIndex:         myIndex,
		onPeerSuspected: onPeerSuspected,
		onPeerDead:      onPeerDead,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start launches the periodic check loop.
func (d *Detector) Start() {
	go d.loop()
}

// Stop signals the loop to exit and waits for it to do so.
func (d *Detector) Stop() {
	close(d.stop)
	<-d.done
}

func (d *Detector) loop() {
	defer close(d.done)

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			d.checkPeers()
		}
	}
}

func (d *Detector) checkPeers() {
	now := time.Now()

	for _, peer := range d.state.SnapshotPeers() {
		if peer.Index == d.myIndex {
			continue
		}
		silence := now.Sub(peer.LastSeen)

		switch {
		case silence > d.config.DeadTimeout && peer.Status != clusterstate.StatusDead:
			d.state.SetPeerStatus(peer.Index, clusterstate.StatusDead)
			d.onPeerDead(peer.Index)
		case silence > d.config.SuspectTimeout && peer.Status == clusterstate.StatusAlive:
			d.state.SetPeerStatus(peer.Index, clusterstate.StatusSuspected)
			d.onPeerSuspected(peer.Index)
		}
	}
}
