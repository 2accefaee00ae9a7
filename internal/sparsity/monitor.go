// Package sparsity watches the count of live peers and triggers a
// discovery cycle when it drops below the fanout target.
package sparsity

import (
	"time"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

// DefaultCheckInterval is the default interval for this monitor,
// deliberately separate from the failure detector's own ticker.
const DefaultCheckInterval = 60 * time.Second

// Monitor periodically compares the non-dead peer count against fanout.
type Monitor struct {
	state         *clusterstate.State
	myIndex       int
	fanout        int
	checkInterval time.Duration

	onInsufficient func()

	stop chan struct{}
	done chan struct{}
}

// New creates a Monitor.
func New(state *clusterstate.State, myIndex, fanout int, checkInterval time.Duration, onInsufficient func()) *Monitor {
	return &Monitor{
		state:          state,
		myIndex:        myIndex,
		fanout:         fanout,
		checkInterval:  checkInterval,
		onInsufficient: onInsufficient,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start performs an immediate check and then begins the periodic loop.
func (m *Monitor) Start() {
	go m.loop()
}

// Stop signals the loop to exit and waits for it to do so.
func (m *Monitor) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Monitor) loop() {
	defer close(m.done)

	m.checkPeerCount()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.checkPeerCount()
		}
	}
}

func (m *Monitor) checkPeerCount() {
	alivePeers := m.state.GetAllNotDead(m.myIndex)
	if len(alivePeers) < m.fanout {
		m.onInsufficient()
	}
}
