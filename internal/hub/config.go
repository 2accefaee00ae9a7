package hub

import (
	"time"

	"github.com/bomberman-gg/hub/internal/failuredetector"
)

// DiscoveryMode selects how a hub computes peer endpoints and how it
// runs its initial join.
type DiscoveryMode string

const (
	DiscoveryManual       DiscoveryMode = "manual"
	DiscoveryOrchestrated DiscoveryMode = "orchestrated"
)

// Config bundles everything the Coordinator needs to know about its own
// identity and the cluster it joins.
type Config struct {
	SelfIndex  int
	GossipPort int

	Fanout        int
	DiscoveryMode DiscoveryMode

	// Manual-mode seed: hub 0 always listens at (127.0.0.1, GossipPort).
	// Orchestrated-mode fields:
	ExpectedHubCount int
	HubServiceName   string
	K8sNamespace     string

	// ExternalAddress is what this hub advertises to players reaching a
	// room it activates. Empty means "use manualSeedHost" (local testing).
	ExternalAddress string

	// FailureDetector overrides the default suspect/dead timeouts. Zero
	// value means "use failuredetector.DefaultConfig()".
	FailureDetector failuredetector.Config

	// SparsityCheckInterval overrides the sparsity monitor's poll
	// interval. Zero means "use sparsity.DefaultCheckInterval".
	SparsityCheckInterval time.Duration
}

// failureDetectorConfig resolves the effective failure detector config,
// falling back to the package default field-by-field so a caller can
// override just one timeout.
func (c Config) failureDetectorConfig() failuredetector.Config {
	cfg := failuredetector.DefaultConfig()
	if c.FailureDetector.SuspectTimeout > 0 {
		cfg.SuspectTimeout = c.FailureDetector.SuspectTimeout
	}
	if c.FailureDetector.DeadTimeout > 0 {
		cfg.DeadTimeout = c.FailureDetector.DeadTimeout
	}
	if c.FailureDetector.CheckInterval > 0 {
		cfg.CheckInterval = c.FailureDetector.CheckInterval
	}
	return cfg
}

// externalAddress returns the host players should be told to connect to,
// falling back to loopback for manual-mode local testing.
func (c Config) externalAddress() string {
	if c.ExternalAddress != "" {
		return c.ExternalAddress
	}
	return manualSeedHost
}

// DefaultFanout is the default gossip fanout.
const DefaultFanout = 4

// manualSeedHost is the fixed loopback address every manual-mode hub
// dials to reach hub 0.
const manualSeedHost = "127.0.0.1"

// discoveryRetryInterval mirrors sparsity.DefaultCheckInterval, the
// default period at which a hub with too few peers re-triggers discovery.
// Nothing reads it; the effective interval comes from
// Config.SparsityCheckInterval or internal/sparsity.
const discoveryRetryInterval = 60 * time.Second
